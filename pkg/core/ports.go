package core

import (
	"context"
	"time"
)

// Reader loads the text of a newly detected file.
type Reader interface {
	Read(ctx context.Context, path string) (string, error)
}

// Parser splits file text into a Note.
type Parser interface {
	Parse(path, content string) (Note, error)
}

// Transformer rewrites a note body.
// Implementations decide which failures are fatal; a returned error aborts
// processing of the file.
type Transformer interface {
	Transform(ctx context.Context, body string) (string, error)
}

// Archive persists a processed note under its destination and removes the source.
// It returns the path of the written file.
type Archive interface {
	Store(ctx context.Context, note Note, dest Destination, body string) (string, error)
}

// Recorder receives processing measurements.
type Recorder interface {
	IncOutcome(outcome Outcome)
	ObserveStage(stage string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) IncOutcome(Outcome)                 {}
func (nopRecorder) ObserveStage(string, time.Duration) {}
