package core

import "errors"

// Common errors.
var (
	ErrNoFrontMatter      = errors.New("yaml front matter not found")
	ErrInvalidFrontMatter = errors.New("front matter is not a yaml mapping")
	ErrMissingMetadata    = errors.New("required metadata missing")
	ErrInvalidSource      = errors.New("source is not a valid url")
	ErrInvalidDate        = errors.New("published is not a valid date")
	ErrTemplateLoad       = errors.New("failed to load prompt template")
	ErrReadExhausted      = errors.New("failed to read file")
)
