package fs

import (
	"fmt"
	"time"

	"github.com/aretw0/introspection"
)

// WatcherState exposes internal state for observability.
type WatcherState struct {
	Dir         string     `json:"dir"`
	Pattern     string     `json:"pattern"`
	SkipInitial bool       `json:"skip_initial"`
	Active      bool       `json:"active"`
	Status      string     `json:"status"`
	Emitted     int        `json:"emitted"`
	Pending     int        `json:"pending"`
	LastEvent   *time.Time `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable.
func (w *Watcher) State() any {
	status := fmt.Sprint(w.worker.State().Status)

	w.mu.RLock()
	defer w.mu.RUnlock()

	return WatcherState{
		Dir:         w.config.Dir,
		Pattern:     w.config.Pattern,
		SkipInitial: w.config.SkipInitial,
		Active:      w.active,
		Status:      status,
		Emitted:     w.emitted,
		Pending:     len(w.events),
		LastEvent:   w.lastEvent,
	}
}

// ComponentType implements introspection.Component.
func (w *Watcher) ComponentType() string {
	return "watcher"
}

var _ introspection.Introspectable = (*Watcher)(nil)
var _ introspection.Component = (*Watcher)(nil)
