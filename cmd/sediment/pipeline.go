package main

import (
	"context"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/sediment"
	"github.com/aretw0/sediment/internal/config"
	"github.com/aretw0/sediment/internal/metrics"
	"github.com/aretw0/sediment/pkg/adapters/llm"
)

// pipelineOptions builds the options shared by the watch and process commands.
func pipelineOptions(ctx context.Context, cfg config.Config, rec sediment.Recorder) []sediment.Option {
	gen, err := llm.NewGenerator(ctx, llm.ProviderConfig{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
	})
	if err != nil {
		fatal("Failed to create model client", err)
	}

	return []sediment.Option{
		sediment.WithLogger(slog.Default()),
		sediment.WithRecorder(rec),
		sediment.WithGenerator(gen),
		sediment.WithPromptPath(cfg.PromptPath),
		sediment.WithFallback(cfg.Fallback),
		sediment.WithModelTimeout(cfg.ModelTimeout),
		sediment.WithPattern(cfg.Pattern),
		sediment.WithStrict(cfg.Strict),
		sediment.WithSerial(cfg.Serial),
		sediment.WithSkipInitial(cfg.SkipInitial),
		sediment.WithReadRetry(cfg.ReadAttempts, cfg.ReadDelay),
		sediment.WithWatcherErrorHandler(func(err error) {
			slog.Error("watcher error", "error", err)
		}),
	}
}

func newRecorder() (*prom.Registry, *metrics.PrometheusRecorder) {
	reg := prom.NewRegistry()
	return reg, metrics.NewPrometheusRecorder(reg)
}
