package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/sediment/pkg/core"
)

type watchWorker struct {
	*worker.BaseWorker
	owner   *Watcher
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	// initial holds names reported by the startup scan. A Create for one of
	// them before it is removed is the same file seen twice.
	initial map[string]bool
}

func newWatchWorker(owner *Watcher) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		owner:      owner,
		initial:    make(map[string]bool),
	}
}

func (w *watchWorker) logger() *slog.Logger {
	return w.owner.config.Logger
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(w.owner.config.Dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.owner.config.Dir, err)
	}

	w.watcher = watcher
	w.owner.setActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// scanInitial reports files already present in the directory, sorted by name.
func (w *watchWorker) scanInitial(ctx context.Context) error {
	entries, err := os.ReadDir(w.owner.config.Dir)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", w.owner.config.Dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if !entry.Type().IsRegular() || !w.owner.Matches(entry.Name()) {
			continue
		}
		w.initial[entry.Name()] = true
		if !w.send(ctx, core.EventInitial, filepath.Join(w.owner.config.Dir, entry.Name())) {
			return nil
		}
	}
	return nil
}

// processFilesystemEvent filters fsnotify events down to newly added files.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) (processed bool) {
	w.logger().Debug("event received", "name", event.Name, "op", event.Op.String())

	name := filepath.Base(event.Name)
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		delete(w.initial, name)
		return false
	}
	if !event.Has(fsnotify.Create) || !w.owner.Matches(name) {
		return false
	}
	if w.initial[name] {
		delete(w.initial, name)
		return false
	}

	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return false
	}

	return w.send(ctx, core.EventCreate, event.Name)
}

func (w *watchWorker) send(ctx context.Context, t core.EventType, path string) bool {
	e := core.Event{Type: t, Path: path, Timestamp: time.Now().Unix()}
	select {
	case w.owner.events <- e:
		w.owner.recordEvent()
		return true
	case <-ctx.Done():
		return false
	}
}

// handleWatcherError processes errors from the fsnotify watcher.
func (w *watchWorker) handleWatcherError(err error) (shouldContinue bool) {
	w.logger().Error("fsnotify error", "error", err)
	if w.owner.config.ErrorHandler != nil {
		w.owner.config.ErrorHandler(err)
	}
	return true
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			if w.logger().Enabled(ctx, slog.LevelDebug) {
				w.logger().Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				w.logger().Error("watcher panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	defer close(w.owner.events)
	defer w.owner.setActive(false)
	defer w.watcher.Close()

	if !w.owner.config.SkipInitial {
		if err := w.scanInitial(ctx); err != nil {
			w.handleWatcherError(err)
		}
	}

	return w.mainEventLoop(ctx)
}

func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}
