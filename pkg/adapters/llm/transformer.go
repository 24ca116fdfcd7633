// Package llm turns note bodies into model output using a prompt template.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/sediment/pkg/core"
)

const (
	// ContentMarker is replaced by the note body in the prompt template.
	ContentMarker = "{{CONTENT}}"
	// DefaultPromptPath is resolved against the working directory.
	DefaultPromptPath = "prompts/content-process.txt"
	// DefaultFallback replaces the body when the model call fails.
	DefaultFallback = "an error occurred while processing content"
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Transformer implements core.Transformer.
//
// A missing template is fatal for the file. A failing model call is not:
// the fallback text is returned instead.
type Transformer struct {
	PromptPath string
	Generator  Generator
	Fallback   string
	// Timeout bounds each model call. Zero leaves it to the generator.
	Timeout time.Duration
	Logger  *slog.Logger
	// OnFallback is called with the model error whenever the fallback is used.
	OnFallback func(error)

	mu        sync.Mutex
	calls     int
	fallbacks int
}

// NewTransformer creates a Transformer with the default prompt path and fallback.
func NewTransformer(gen Generator, logger *slog.Logger) *Transformer {
	return &Transformer{
		PromptPath: DefaultPromptPath,
		Generator:  gen,
		Fallback:   DefaultFallback,
		Logger:     logger,
	}
}

// LoadTemplate reads the prompt template at path. An empty file is not a template.
func LoadTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrTemplateLoad, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", core.ErrTemplateLoad, path)
	}
	return string(data), nil
}

// Compose substitutes body for the first ContentMarker in tmpl.
func Compose(tmpl, body string) string {
	return strings.Replace(tmpl, ContentMarker, body, 1)
}

// Transform loads the template, composes the prompt and asks the generator.
func (t *Transformer) Transform(ctx context.Context, body string) (string, error) {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path := t.PromptPath
	if path == "" {
		path = DefaultPromptPath
	}
	tmpl, err := LoadTemplate(path)
	if err != nil {
		logger.Error("prompt template could not be loaded", "path", path, "error", err)
		return "", err
	}
	if !strings.Contains(tmpl, ContentMarker) {
		logger.Warn("prompt template has no content marker", "path", path, "marker", ContentMarker)
	}

	if t.Generator == nil {
		return t.fallback(logger, errors.New("no generator configured")), nil
	}

	callCtx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	t.count(false)
	out, err := t.Generator.Generate(callCtx, Compose(tmpl, body))
	if err != nil {
		return t.fallback(logger, err), nil
	}
	return out, nil
}

func (t *Transformer) fallback(logger *slog.Logger, err error) string {
	logger.Error("content processing failed, using fallback", "error", err)
	t.count(true)
	if t.OnFallback != nil {
		t.OnFallback(err)
	}
	if t.Fallback == "" {
		return DefaultFallback
	}
	return t.Fallback
}

func (t *Transformer) count(fallback bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fallback {
		t.fallbacks++
	} else {
		t.calls++
	}
}

// Stats returns the number of model calls and fallbacks so far.
func (t *Transformer) Stats() (calls, fallbacks int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls, t.fallbacks
}

var _ core.Transformer = (*Transformer)(nil)
