package platform_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sediment/internal/platform"
	"github.com/aretw0/sediment/pkg/adapters/fs"
	"github.com/aretw0/sediment/pkg/adapters/llm"
	"github.com/aretw0/sediment/pkg/core"
)

const scenarioNote = "---\nsource: https://blog.example.com/post\npublished: 2023-11-02\n---\nHello"

// echoModel records prompts and answers with a marked copy of them.
type echoModel struct {
	mu      sync.Mutex
	prompts []string
	err     error
}

func (m *echoModel) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return "processed: " + prompt, nil
}

func (m *echoModel) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

type countingRecorder struct {
	mu        sync.Mutex
	outcomes  map[core.Outcome]int
	events    map[core.EventType]int
	stages    map[string]int
	fallbacks int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		outcomes: map[core.Outcome]int{},
		events:   map[core.EventType]int{},
		stages:   map[string]int{},
	}
}

func (r *countingRecorder) IncOutcome(o core.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[o]++
}

func (r *countingRecorder) ObserveStage(stage string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage]++
}

func (r *countingRecorder) IncFallback(error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks++
}

func (r *countingRecorder) IncEvent(t core.EventType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[t]++
}

type dirs struct {
	raw, out, prompt string
}

func setupDirs(t *testing.T) dirs {
	t.Helper()
	root := t.TempDir()
	d := dirs{
		raw:    filepath.Join(root, "raw"),
		out:    filepath.Join(root, "vault", "source"),
		prompt: filepath.Join(root, "prompt.txt"),
	}
	require.NoError(t, os.MkdirAll(d.raw, 0755))
	require.NoError(t, os.WriteFile(d.prompt, []byte("Rewrite:\n{{CONTENT}}"), 0644))
	return d
}

// dropNote moves a fully written note into dir so the watcher never sees a partial file.
func dropNote(t *testing.T, dir, name, content string) string {
	t.Helper()
	staging := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(staging, []byte(content), 0644))
	dest := filepath.Join(dir, name)
	require.NoError(t, os.Rename(staging, dest))
	return dest
}

func baseOptions(d dirs, model llm.Generator, extra ...platform.Option) []platform.Option {
	return append([]platform.Option{
		platform.WithGenerator(model),
		platform.WithPromptPath(d.prompt),
		platform.WithReadRetry(5, 10*time.Millisecond),
	}, extra...)
}

func runPipeline(t *testing.T, p *platform.Pipeline) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("pipeline did not stop")
		}
	})
	return cancel
}

func waitActive(t *testing.T, p *platform.Pipeline) {
	t.Helper()
	require.Eventually(t, func() bool {
		return p.Watcher().State().(fs.WatcherState).Active
	}, 2*time.Second, 10*time.Millisecond)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestPipeline_RelocatesInitialAndNewNotes(t *testing.T) {
	d := setupDirs(t)
	model := &echoModel{}
	rec := newCountingRecorder()

	existing := dropNote(t, d.raw, "note.md", scenarioNote)

	p, err := platform.New(d.raw, d.out, baseOptions(d, model, platform.WithRecorder(rec))...)
	require.NoError(t, err)
	runPipeline(t, p)

	want := filepath.Join(d.out, "blog.example.com", "20231102", "note.md")
	require.Eventually(t, func() bool { return fileExists(want) }, 5*time.Second, 20*time.Millisecond)
	assert.NoFileExists(t, existing)

	got, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t,
		"---\nsource: https://blog.example.com/post\npublished: 2023-11-02\n---\n\nprocessed: Rewrite:\nHello",
		string(got))

	dropNote(t, d.raw, "later.md", "---\nsource: https://www.Other.org/a\npublished: 2024-03-05T00:00:00\n---\nWorld")
	later := filepath.Join(d.out, "other.org", "20240305", "later.md")
	require.Eventually(t, func() bool { return fileExists(later) }, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return p.Service().State().(core.ServiceState).Relocated == 2
	}, 2*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.events[core.EventInitial])
	assert.Equal(t, 1, rec.events[core.EventCreate])
	assert.Equal(t, 2, rec.outcomes[core.OutcomeRelocated])
	assert.Equal(t, 2, rec.stages["transform"])
	assert.Zero(t, rec.fallbacks)
}

func TestPipeline_SerialKeepsArrivalOrder(t *testing.T) {
	d := setupDirs(t)
	model := &echoModel{}

	for _, name := range []string{"c.md", "a.md", "b.md"} {
		dropNote(t, d.raw, name, "---\nsource: https://example.com\npublished: 2024-01-01\n---\n"+name)
	}

	p, err := platform.New(d.raw, d.out, baseOptions(d, model, platform.WithSerial(true))...)
	require.NoError(t, err)
	runPipeline(t, p)

	require.Eventually(t, func() bool { return len(model.calls()) == 3 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"Rewrite:\na.md", "Rewrite:\nb.md", "Rewrite:\nc.md"}, model.calls())

	require.Eventually(t, func() bool {
		return p.Service().State().(core.ServiceState).LastSeq == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPipeline_SkipInitial(t *testing.T) {
	d := setupDirs(t)
	model := &echoModel{}
	old := dropNote(t, d.raw, "old.md", scenarioNote)

	p, err := platform.New(d.raw, d.out, baseOptions(d, model, platform.WithSkipInitial(true))...)
	require.NoError(t, err)
	runPipeline(t, p)

	waitActive(t, p)
	time.Sleep(200 * time.Millisecond)

	assert.FileExists(t, old)
	assert.Empty(t, model.calls())
}

func TestPipeline_RunTwiceFails(t *testing.T) {
	d := setupDirs(t)
	p, err := platform.New(d.raw, d.out, baseOptions(d, &echoModel{})...)
	require.NoError(t, err)
	runPipeline(t, p)
	waitActive(t, p)

	assert.ErrorContains(t, p.Run(context.Background()), "already running")
}

func TestProcessor_ModelFailureWritesFallback(t *testing.T) {
	d := setupDirs(t)
	model := &echoModel{err: errors.New("quota exceeded")}
	rec := newCountingRecorder()

	p, err := platform.NewProcessor(d.out, baseOptions(d, model,
		platform.WithRecorder(rec),
		platform.WithFallback("could not summarise"),
	)...)
	require.NoError(t, err)

	src := dropNote(t, d.raw, "note.md", scenarioNote)
	res, err := p.ProcessFile(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeRelocated, res.Outcome)
	assert.NoFileExists(t, src)

	got, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	assert.Equal(t,
		"---\nsource: https://blog.example.com/post\npublished: 2023-11-02\n---\n\ncould not summarise",
		string(got))

	calls, fallbacks := p.Stats()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, fallbacks)
	assert.Equal(t, 1, rec.fallbacks)
}

func TestProcessor_MissingTemplateLeavesSource(t *testing.T) {
	d := setupDirs(t)
	require.NoError(t, os.Remove(d.prompt))
	model := &echoModel{}

	p, err := platform.NewProcessor(d.out, baseOptions(d, model)...)
	require.NoError(t, err)

	src := dropNote(t, d.raw, "note.md", scenarioNote)
	res, err := p.ProcessFile(context.Background(), src)
	assert.ErrorIs(t, err, core.ErrTemplateLoad)
	assert.Equal(t, core.OutcomeFailed, res.Outcome)

	got, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, scenarioNote, string(got))
	assert.NoDirExists(t, filepath.Join(d.out, "blog.example.com"))
	assert.Empty(t, model.calls())
}

func TestProcessor_SkipsWithoutMoving(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		content string
		reason  error
	}{
		{"missing published", false, "---\nsource: https://example.com\n---\nbody", core.ErrMissingMetadata},
		{"strict bad date", true, "---\nsource: https://example.com\npublished: someday\n---\nbody", core.ErrInvalidDate},
		{"strict bad source", true, "---\nsource: example\npublished: 2024-01-01\n---\nbody", core.ErrInvalidSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupDirs(t)
			model := &echoModel{}
			p, err := platform.NewProcessor(d.out, baseOptions(d, model, platform.WithStrict(tt.strict))...)
			require.NoError(t, err)

			src := dropNote(t, d.raw, "note.md", tt.content)
			before, err := os.ReadFile(src)
			require.NoError(t, err)

			res, err := p.ProcessFile(context.Background(), src)
			require.NoError(t, err)
			assert.Equal(t, core.OutcomeSkipped, res.Outcome)
			assert.ErrorIs(t, res.Reason, tt.reason)

			after, err := os.ReadFile(src)
			require.NoError(t, err)
			assert.Equal(t, before, after, "source must be left byte-identical")
			assert.NoDirExists(t, d.out)
			assert.Empty(t, model.calls())
		})
	}
}

func TestProcessor_LenientBadDateGoesToUnknown(t *testing.T) {
	d := setupDirs(t)
	p, err := platform.NewProcessor(d.out, baseOptions(d, &echoModel{})...)
	require.NoError(t, err)

	src := dropNote(t, d.raw, "note.md", "---\nsource: https://example.com\npublished: someday\n---\nbody")
	res, err := p.ProcessFile(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(d.out, "example.com", core.Unknown, "note.md"), res.Output)
}

func TestNew_Validation(t *testing.T) {
	d := setupDirs(t)

	_, err := platform.New(d.raw, d.out)
	assert.ErrorContains(t, err, "generator")

	_, err = platform.New(filepath.Join(d.raw, "missing"), d.out, platform.WithGenerator(&echoModel{}))
	assert.Error(t, err)

	p, err := platform.NewProcessor(d.out, platform.WithGenerator(&echoModel{}))
	require.NoError(t, err)
	assert.Error(t, p.Run(context.Background()))
	assert.Nil(t, p.Watcher())
	assert.Len(t, p.Components(), 1)
	assert.True(t, strings.Count(p.RunID(), "-") == 4)
}
