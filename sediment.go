package sediment

import (
	"log/slog"
	"time"

	"github.com/aretw0/sediment/internal/platform"
	"github.com/aretw0/sediment/pkg/adapters/llm"
)

// --- Types ---

// Pipeline watches a raw directory and files processed notes.
type Pipeline = platform.Pipeline

// Recorder receives pipeline metrics.
type Recorder = platform.Recorder

// --- Configuration ---

// Option defines a functional option for configuring a Pipeline.
type Option = platform.Option

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRecorder registers a metrics recorder.
func WithRecorder(r Recorder) Option {
	return platform.WithRecorder(r)
}

// WithGenerator sets the model used to transform note bodies.
func WithGenerator(g llm.Generator) Option {
	return platform.WithGenerator(g)
}

// WithPromptPath sets the prompt template file.
func WithPromptPath(path string) Option {
	return platform.WithPromptPath(path)
}

// WithFallback sets the body written when the model call fails.
func WithFallback(text string) Option {
	return platform.WithFallback(text)
}

// WithModelTimeout bounds each model call.
func WithModelTimeout(d time.Duration) Option {
	return platform.WithModelTimeout(d)
}

// WithPattern sets the glob that new file names must match.
func WithPattern(pattern string) Option {
	return platform.WithPattern(pattern)
}

// WithStrict leaves notes with an unparseable source or date in place.
func WithStrict(strict bool) Option {
	return platform.WithStrict(strict)
}

// WithSerial processes one note at a time in arrival order.
func WithSerial(serial bool) Option {
	return platform.WithSerial(serial)
}

// WithSkipInitial ignores files already present when watching starts.
func WithSkipInitial(skip bool) Option {
	return platform.WithSkipInitial(skip)
}

// WithReadRetry configures how often and how patiently a new file is read.
func WithReadRetry(attempts int, delay time.Duration) Option {
	return platform.WithReadRetry(attempts, delay)
}

// WithEventBuffer sets the size of the watcher event buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithLocation sets the zone dates with an offset are converted to.
func WithLocation(loc *time.Location) Option {
	return platform.WithLocation(loc)
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New creates a Pipeline watching rawDir and filing into outputDir.
func New(rawDir, outputDir string, opts ...Option) (*Pipeline, error) {
	return platform.New(rawDir, outputDir, opts...)
}

// NewProcessor creates a Pipeline for processing explicit files without watching.
func NewProcessor(outputDir string, opts ...Option) (*Pipeline, error) {
	return platform.NewProcessor(outputDir, opts...)
}
