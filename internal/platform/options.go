package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/sediment/pkg/adapters/llm"
	"github.com/aretw0/sediment/pkg/core"
)

// Recorder receives pipeline metrics. internal/metrics.PrometheusRecorder
// implements it.
type Recorder interface {
	core.Recorder
	IncFallback(err error)
	IncEvent(t core.EventType)
}

// options holds the internal configuration for a Pipeline.
type options struct {
	logger       *slog.Logger
	recorder     Recorder
	generator    llm.Generator
	promptPath   string
	fallback     string
	modelTimeout time.Duration
	pattern      string
	strict       bool
	serial       bool
	skipInitial  bool
	readAttempts int
	readDelay    time.Duration
	eventBuffer  int
	location     *time.Location
	errorHandler func(error)
}

// Option defines a functional option for configuring a Pipeline.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		promptPath:   llm.DefaultPromptPath,
		fallback:     llm.DefaultFallback,
		readAttempts: 3,
		readDelay:    time.Second,
	}
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRecorder registers a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithGenerator sets the model used to transform note bodies. Required.
func WithGenerator(g llm.Generator) Option {
	return func(o *options) {
		o.generator = g
	}
}

// WithPromptPath sets the prompt template file. It is re-read for every note.
func WithPromptPath(path string) Option {
	return func(o *options) {
		o.promptPath = path
	}
}

// WithFallback sets the body written when the model call fails.
func WithFallback(text string) Option {
	return func(o *options) {
		if text != "" {
			o.fallback = text
		}
	}
}

// WithModelTimeout bounds each model call. Zero means no bound.
func WithModelTimeout(d time.Duration) Option {
	return func(o *options) {
		o.modelTimeout = d
	}
}

// WithPattern sets the glob that new file names must match. Defaults to "*.md".
func WithPattern(pattern string) Option {
	return func(o *options) {
		o.pattern = pattern
	}
}

// WithStrict leaves notes with an unparseable source or date in place
// instead of filing them under "unknown".
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithSerial processes one note at a time in arrival order.
func WithSerial(serial bool) Option {
	return func(o *options) {
		o.serial = serial
	}
}

// WithSkipInitial ignores files already present when watching starts.
func WithSkipInitial(skip bool) Option {
	return func(o *options) {
		o.skipInitial = skip
	}
}

// WithReadRetry configures how often and how patiently a new file is read.
func WithReadRetry(attempts int, delay time.Duration) Option {
	return func(o *options) {
		if attempts > 0 {
			o.readAttempts = attempts
		}
		if delay >= 0 {
			o.readDelay = delay
		}
	}
}

// WithEventBuffer sets the size of the watcher event buffer.
// Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithLocation sets the zone dates with an offset are converted to.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.location = loc
	}
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures,
// which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
