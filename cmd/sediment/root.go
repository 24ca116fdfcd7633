package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/sediment/internal/config"
)

var (
	verbose     bool
	rawDir      string
	outputDir   string
	promptPath  string
	strict      bool
	serial      bool
	skipInitial bool
	metricsAddr string
)

// rootCmd represents the base command when called without any subcommands.
// Without a subcommand it watches, like the watch command.
var rootCmd = &cobra.Command{
	Use:   "sediment",
	Short: "Files clipped Markdown notes into a vault, rewritten by a language model",
	Long: `Sediment watches a directory of raw Markdown notes. Each note with a
"source" and "published" front matter field has its body rewritten by a
generative model and is moved to <output>/<domain>/<YYYYMMDD>/.

Configuration is read from the environment (RAW_DIR, OUTPUT_DIR,
GEMINI_API_KEY, ...), from .env and .env.local, and from flags.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)

		loaded, err := config.LoadEnvFiles()
		if err != nil {
			fatal("Error loading environment files", err)
		}
		if len(loaded) > 0 {
			logger.Debug("environment files loaded", "files", loaded)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		runWatch(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies flags the user set explicitly.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg, err := config.FromEnv()
	if err != nil {
		fatal("Invalid configuration", err)
	}

	flags := cmd.Flags()
	if flags.Changed("raw-dir") {
		cfg.RawDir = config.ExpandPath(rawDir)
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = config.ExpandPath(outputDir)
	}
	if flags.Changed("prompt") {
		cfg.PromptPath = config.ExpandPath(promptPath)
	}
	if flags.Changed("strict") {
		cfg.Strict = strict
	}
	if flags.Changed("serial") {
		cfg.Serial = serial
	}
	if flags.Changed("skip-initial") {
		cfg.SkipInitial = skipInitial
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		fatal("Invalid configuration", err)
	}
	return cfg
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	pf.StringVar(&rawDir, "raw-dir", "", "Directory to watch for new notes (env RAW_DIR)")
	pf.StringVar(&outputDir, "output-dir", "", "Vault directory notes are filed into (env OUTPUT_DIR)")
	pf.StringVar(&promptPath, "prompt", "", "Prompt template containing {{CONTENT}} (env SEDIMENT_PROMPT)")
	pf.BoolVar(&strict, "strict", false, "Leave notes with an unparseable source or date in place")
	pf.BoolVar(&serial, "serial", false, "Process one note at a time in arrival order")
	pf.BoolVar(&skipInitial, "skip-initial", false, "Ignore notes already present at startup")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics, /healthz and /state on this address")
}
