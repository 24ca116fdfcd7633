package fs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sediment/pkg/core"
)

// collector drains a watcher's event channel in the background.
type collector struct {
	mu     sync.Mutex
	events []core.Event
	done   chan struct{}
}

func collect(ch <-chan core.Event) *collector {
	c := &collector{done: make(chan struct{})}
	go func() {
		defer close(c.done)
		for e := range ch {
			c.mu.Lock()
			c.events = append(c.events, e)
			c.mu.Unlock()
		}
	}()
	return c
}

func (c *collector) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, filepath.Base(e.Path))
	}
	return out
}

func (c *collector) snapshot() []core.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Event(nil), c.events...)
}

func startWatcher(t *testing.T, cfg WatchConfig) (*Watcher, *collector) {
	t.Helper()

	w, err := NewWatcher(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	c := collect(w.Events())
	t.Cleanup(func() {
		cancel()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		_ = w.Stop(stopCtx)
		select {
		case <-c.done:
		case <-time.After(2 * time.Second):
			t.Error("event channel was not closed after stop")
		}
	})

	require.Eventually(t, func() bool {
		return w.State().(WatcherState).Active
	}, 2*time.Second, 10*time.Millisecond)

	return w, c
}

func writeNote(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("---\na: 1\n---\nbody"), 0644))
}

func TestWatcher_ReportsInitialFiles(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, filepath.Join(dir, "b.md"))
	writeNote(t, filepath.Join(dir, "a.md"))
	writeNote(t, filepath.Join(dir, ".hidden.md"))
	writeNote(t, filepath.Join(dir, "notes.txt"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.md"), 0755))

	_, c := startWatcher(t, WatchConfig{Dir: dir})

	require.Eventually(t, func() bool { return len(c.names()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"a.md", "b.md"}, c.names())
	for _, e := range c.snapshot() {
		assert.Equal(t, core.EventInitial, e.Type)
	}
}

func TestWatcher_SkipInitial(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, filepath.Join(dir, "old.md"))

	_, c := startWatcher(t, WatchConfig{Dir: dir, SkipInitial: true})

	writeNote(t, filepath.Join(dir, "new.md"))

	require.Eventually(t, func() bool { return len(c.names()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"new.md"}, c.names())
	assert.Equal(t, core.EventCreate, c.snapshot()[0].Type)
}

func TestWatcher_ReportsCreatedFilesOnce(t *testing.T) {
	dir := t.TempDir()
	w, c := startWatcher(t, WatchConfig{Dir: dir})

	path := filepath.Join(dir, "note.md")
	writeNote(t, path)
	// Further writes to the same file are not new files.
	require.NoError(t, os.WriteFile(path, []byte("---\na: 2\n---\nmore"), 0644))
	writeNote(t, filepath.Join(dir, ".draft.md"))
	writeNote(t, filepath.Join(dir, "image.png"))

	require.Eventually(t, func() bool { return len(c.names()) >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"note.md"}, c.names())
	assert.Equal(t, 1, w.State().(WatcherState).Emitted)
}

func TestWatcher_RecreatedFileIsNewEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	writeNote(t, path)

	_, c := startWatcher(t, WatchConfig{Dir: dir})
	require.Eventually(t, func() bool { return len(c.names()) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(path))
	time.Sleep(50 * time.Millisecond)
	writeNote(t, path)

	require.Eventually(t, func() bool { return len(c.names()) == 2 }, 2*time.Second, 10*time.Millisecond)
	events := c.snapshot()
	assert.Equal(t, core.EventInitial, events[0].Type)
	assert.Equal(t, core.EventCreate, events[1].Type)
}

func TestWatcher_CustomPattern(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, filepath.Join(dir, "clip-1.md"))
	writeNote(t, filepath.Join(dir, "other.md"))

	_, c := startWatcher(t, WatchConfig{Dir: dir, Pattern: "clip-*.md"})

	require.Eventually(t, func() bool { return len(c.names()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"clip-1.md"}, c.names())
}

func TestWatcher_DoubleStartFails(t *testing.T) {
	w, _ := startWatcher(t, WatchConfig{Dir: t.TempDir()})
	assert.Error(t, w.Start(context.Background()))
}

func TestNewWatcher_Validation(t *testing.T) {
	_, err := NewWatcher(WatchConfig{})
	assert.Error(t, err)

	_, err = NewWatcher(WatchConfig{Dir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.md")
	writeNote(t, file)
	_, err = NewWatcher(WatchConfig{Dir: file})
	assert.Error(t, err)

	_, err = NewWatcher(WatchConfig{Dir: t.TempDir(), Pattern: "[unclosed"})
	assert.Error(t, err)
}

func TestWatcher_Matches(t *testing.T) {
	w, err := NewWatcher(WatchConfig{Dir: t.TempDir()})
	require.NoError(t, err)

	assert.True(t, w.Matches("note.md"))
	assert.False(t, w.Matches(".note.md"))
	assert.False(t, w.Matches("note.txt"))
	assert.False(t, w.Matches(TempFilePrefix+"123"))
	assert.Equal(t, "watcher", w.ComponentType())
}
