package platform

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/aretw0/sediment/pkg/adapters/fs"
	"github.com/aretw0/sediment/pkg/adapters/llm"
	"github.com/aretw0/sediment/pkg/core"
)

// stopTimeout bounds how long Run waits for the watcher to release its resources.
const stopTimeout = 5 * time.Second

// Pipeline connects the watcher to the processing service.
type Pipeline struct {
	runID     string
	rawDir    string
	outputDir string
	serial    bool
	logger    *slog.Logger
	recorder  Recorder

	service     *core.Service
	watcher     *fs.Watcher
	transformer *llm.Transformer

	seq     atomic.Int64
	running atomic.Bool
	wg      sync.WaitGroup
}

// RunID identifies this pipeline in log lines.
func (p *Pipeline) RunID() string { return p.runID }

// Service returns the processing service.
func (p *Pipeline) Service() *core.Service { return p.service }

// Watcher returns the directory watcher, or nil for a processor-only pipeline.
func (p *Pipeline) Watcher() *fs.Watcher { return p.watcher }

// Components returns the introspectable parts of the pipeline.
func (p *Pipeline) Components() []introspection.Introspectable {
	out := []introspection.Introspectable{p.service}
	if p.watcher != nil {
		out = append(out, p.watcher)
	}
	return out
}

// Run watches the raw directory until ctx is cancelled.
// Notes already being processed are allowed to finish before Run returns;
// they are not cut short by the cancellation.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.watcher == nil {
		return errNoWatcher
	}
	if !p.running.CompareAndSwap(false, true) {
		return errAlreadyRunning
	}
	defer p.running.Store(false)

	if err := p.watcher.Start(ctx); err != nil {
		return err
	}
	p.logger.Info("watching for new notes", "dir", p.rawDir, "output", p.outputDir, "serial", p.serial)

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		defer cancel()
		if err := p.watcher.Stop(stopCtx); err != nil {
			p.logger.Warn("watcher did not stop cleanly", "error", err)
		}
		p.wg.Wait()
		p.logger.Info("pipeline stopped", "processed", p.seq.Load())
	}()

	events := p.watcher.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			p.dispatch(ctx, e)
		}
	}
}

// dispatch assigns the next sequence number to e and processes it, inline in
// serial mode and on its own goroutine otherwise.
func (p *Pipeline) dispatch(ctx context.Context, e core.Event) {
	seq := p.seq.Add(1)
	if p.recorder != nil {
		p.recorder.IncEvent(e.Type)
	}
	p.logger.Debug("file detected", "seq", seq, "event", e.String())

	work := context.WithoutCancel(ctx)
	if p.serial {
		p.handle(work, seq, e.Path)
		return
	}

	p.wg.Add(1)
	lifecycle.Go(work, func(ctx context.Context) error {
		defer p.wg.Done()
		p.handle(ctx, seq, e.Path)
		return nil
	})
}

func (p *Pipeline) handle(ctx context.Context, seq int64, path string) {
	// Errors are logged by the service with the seq attached.
	_, _ = p.service.Process(ctx, seq, path)
}

// ProcessFile runs the pipeline once for path, outside of any watch.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (core.Result, error) {
	return p.service.Process(ctx, p.seq.Add(1), path)
}

// Stats reports model calls and how many of them fell back.
func (p *Pipeline) Stats() (calls, fallbacks int) {
	return p.transformer.Stats()
}
