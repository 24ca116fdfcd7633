package core

import (
	"path/filepath"
	"strings"
)

// Metadata represents the flexible key-value pairs of a note's front matter.
type Metadata map[string]any

// Present reports whether key holds a usable value.
// Nil values and blank strings count as absent.
func (m Metadata) Present(key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// Note is a Markdown file split into its front matter and body.
type Note struct {
	// Path is the location the note was read from.
	Path     string
	Metadata Metadata
	// Body is the raw text following the closing front matter fence.
	Body string
	// Raw holds the parser's own representation of the front matter
	// (e.g. a *yaml.Node) so it can be re-encoded without reordering keys.
	Raw any
}

// Name returns the file name of the note.
func (n Note) Name() string {
	return filepath.Base(n.Path)
}

// Destination is the archive partition a note is relocated into.
type Destination struct {
	Domain        string
	PublishedDate string
}

// Dir returns the partition directory below base.
func (d Destination) Dir(base string) string {
	return filepath.Join(base, d.Domain, d.PublishedDate)
}

// Outcome is the terminal state of a processed file.
type Outcome string

const (
	OutcomeRelocated Outcome = "relocated"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Result describes what happened to a single file.
type Result struct {
	Seq     int64
	Source  string
	Output  string
	Outcome Outcome
	// Reason explains a skip. It is nil for other outcomes.
	Reason error
}

// EventType distinguishes files found at startup from files that appeared later.
type EventType string

const (
	EventInitial EventType = "INITIAL"
	EventCreate  EventType = "CREATE"
)

// Event reports a file added to the watched directory.
type Event struct {
	Type      EventType
	Path      string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return string(e.Type) + " " + e.Path
}
