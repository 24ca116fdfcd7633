package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/aretw0/sediment/pkg/adapters/fs"
	"github.com/aretw0/sediment/pkg/adapters/llm"
	"github.com/aretw0/sediment/pkg/core"
)

// New wires a Pipeline that watches rawDir and files notes under outputDir.
//
//	p, err := platform.New("~/raw", "~/vault/source", platform.WithGenerator(gen))
func New(rawDir, outputDir string, opts ...Option) (*Pipeline, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.generator == nil {
		return nil, errors.New("a generator is required")
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	rawDir, err := filepath.Abs(rawDir)
	if err != nil {
		return nil, err
	}
	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := o.logger.With("run_id", runID)

	watcher, err := fs.NewWatcher(fs.WatchConfig{
		Dir:          rawDir,
		Pattern:      o.pattern,
		SkipInitial:  o.skipInitial,
		Buffer:       o.eventBuffer,
		Logger:       logger,
		ErrorHandler: o.errorHandler,
	})
	if err != nil {
		return nil, err
	}

	svc, transformer, err := newService(outputDir, logger, o)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(o.promptPath); err != nil {
		logger.Warn("prompt template not readable, notes will fail until it is", "path", o.promptPath, "error", err)
	}

	return &Pipeline{
		runID:       runID,
		rawDir:      rawDir,
		outputDir:   outputDir,
		serial:      o.serial,
		logger:      logger,
		recorder:    o.recorder,
		service:     svc,
		watcher:     watcher,
		transformer: transformer,
	}, nil
}

// NewProcessor wires a Pipeline without a watcher, for one-shot processing
// of explicit files.
func NewProcessor(outputDir string, opts ...Option) (*Pipeline, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.generator == nil {
		return nil, errors.New("a generator is required")
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	outputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := o.logger.With("run_id", runID)

	svc, transformer, err := newService(outputDir, logger, o)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		runID:       runID,
		outputDir:   outputDir,
		serial:      true,
		logger:      logger,
		recorder:    o.recorder,
		service:     svc,
		transformer: transformer,
	}, nil
}

func newService(outputDir string, logger *slog.Logger, o *options) (*core.Service, *llm.Transformer, error) {
	policy := core.PolicyLenient
	if o.strict {
		policy = core.PolicyStrict
	}
	resolver := core.NewResolver(policy)
	if o.location != nil {
		resolver.Location = o.location
	}

	reader := fs.NewRetryReader(logger)
	reader.Attempts = o.readAttempts
	reader.Delay = o.readDelay

	transformer := llm.NewTransformer(o.generator, logger)
	transformer.PromptPath = o.promptPath
	transformer.Fallback = o.fallback
	transformer.Timeout = o.modelTimeout

	codec := fs.NewFrontMatter()
	cfg := core.Config{
		Reader:      reader,
		Parser:      codec,
		Resolver:    resolver,
		Transformer: transformer,
		Archive:     fs.NewArchive(outputDir, codec),
		OutputBase:  outputDir,
		VaultRoot:   vaultRoot(outputDir),
		Logger:      logger,
	}
	if o.recorder != nil {
		cfg.Recorder = o.recorder
		transformer.OnFallback = o.recorder.IncFallback
	}

	svc, err := core.NewService(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, transformer, nil
}
