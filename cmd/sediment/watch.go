package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/sediment"
	"github.com/aretw0/sediment/internal/metrics"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the raw directory and file new notes until interrupted",
	Run: func(cmd *cobra.Command, args []string) {
		runWatch(cmd)
	},
}

func runWatch(cmd *cobra.Command) {
	cfg := loadConfig(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, rec := newRecorder()
	p, err := sediment.New(cfg.RawDir, cfg.OutputDir, pipelineOptions(ctx, cfg, rec)...)
	if err != nil {
		fatal("Failed to start pipeline", err)
	}

	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, reg, slog.Default(), p.Components()...)
		if _, err := srv.Start(); err != nil {
			fatal("Failed to start status server", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := p.Run(ctx); err != nil {
		fatal("Watch failed", err)
	}

	calls, fallbacks := p.Stats()
	slog.Info("shutdown complete", "model_calls", calls, "fallbacks", fallbacks)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
