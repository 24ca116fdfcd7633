package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/sediment/pkg/core"
)

const (
	// DefaultPattern selects Markdown notes.
	DefaultPattern = "*.md"
	// DefaultEventBuffer is the size of the event channel.
	DefaultEventBuffer = 100
)

// WatchConfig holds the configuration for a directory Watcher.
type WatchConfig struct {
	Dir string
	// Pattern is a doublestar glob matched against file base names.
	Pattern string
	// SkipInitial suppresses events for files present at start.
	SkipInitial  bool
	Buffer       int
	Logger       *slog.Logger
	ErrorHandler func(error)
}

// Watcher reports files added to a single directory.
// Dotfiles and directories are ignored; subdirectories are not watched.
type Watcher struct {
	config WatchConfig
	events chan core.Event
	worker *watchWorker

	mu        sync.RWMutex
	active    bool
	emitted   int
	lastEvent *time.Time
}

// NewWatcher validates cfg and creates a Watcher. Call Start to begin watching.
func NewWatcher(cfg WatchConfig) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("watch directory cannot be empty")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path is not a directory: %s", cfg.Dir)
	}
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(cfg.Pattern) {
		return nil, fmt.Errorf("invalid pattern %q", cfg.Pattern)
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultEventBuffer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	w := &Watcher{
		config: cfg,
		events: make(chan core.Event, cfg.Buffer),
	}
	w.worker = newWatchWorker(w)
	return w, nil
}

// Events returns the channel of added files. It is closed when the watcher stops.
func (w *Watcher) Events() <-chan core.Event {
	return w.events
}

// Start begins watching. It returns once the directory watch is registered.
func (w *Watcher) Start(ctx context.Context) error {
	return w.worker.Start(ctx)
}

// Stop ends watching and waits for the worker to exit.
func (w *Watcher) Stop(ctx context.Context) error {
	return w.worker.Stop(ctx)
}

// Matches reports whether name is a file the watcher reports.
func (w *Watcher) Matches(name string) bool {
	if name == "" || name[0] == '.' {
		return false
	}
	ok, err := doublestar.Match(w.config.Pattern, name)
	return err == nil && ok
}

func (w *Watcher) setActive(active bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = active
}

func (w *Watcher) recordEvent() {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	w.emitted++
	w.lastEvent = &now
}
