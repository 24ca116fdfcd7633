package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/sediment"
	"github.com/aretw0/sediment/pkg/core"
)

var processCmd = &cobra.Command{
	Use:   "process <file>...",
	Short: "Process the given notes once and exit",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		ctx := context.Background()

		_, rec := newRecorder()
		p, err := sediment.NewProcessor(cfg.OutputDir, pipelineOptions(ctx, cfg, rec)...)
		if err != nil {
			fatal("Failed to create processor", err)
		}

		failed := 0
		for _, path := range args {
			res, err := p.ProcessFile(ctx, path)
			switch {
			case err != nil:
				failed++
				fmt.Printf("failed    %s: %v\n", path, err)
			case res.Outcome == core.OutcomeSkipped:
				fmt.Printf("skipped   %s: %v\n", path, res.Reason)
			default:
				fmt.Printf("relocated %s -> %s\n", path, res.Output)
			}
		}
		if failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
}
