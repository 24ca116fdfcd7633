// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvRawDir       = "RAW_DIR"
	EnvOutputDir    = "OUTPUT_DIR"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvOpenAIBase   = "OPENAI_BASE_URL"
	EnvProvider     = "SEDIMENT_PROVIDER"
	EnvModel        = "SEDIMENT_MODEL"
	EnvPrompt       = "SEDIMENT_PROMPT"
	EnvPattern      = "SEDIMENT_PATTERN"
	EnvStrict       = "SEDIMENT_STRICT"
	EnvSerial       = "SEDIMENT_SERIAL"
	EnvSkipInitial  = "SEDIMENT_SKIP_INITIAL"
	EnvReadRetries  = "SEDIMENT_READ_RETRIES"
	EnvReadDelay    = "SEDIMENT_READ_DELAY"
	EnvModelTimeout = "SEDIMENT_MODEL_TIMEOUT"
	EnvMetricsAddr  = "SEDIMENT_METRICS_ADDR"
	EnvFallback     = "SEDIMENT_FALLBACK"
)

const (
	DefaultRawDir    = "~/obsidian/98-raw"
	DefaultOutputDir = "~/obsidian/2-source"
	DefaultPrompt    = "prompts/content-process.txt"
	DefaultPattern   = "*.md"
)

// ErrMissingCredential is returned when the selected provider has no API key.
var ErrMissingCredential = errors.New("model API key is not set")

// Config is the process configuration.
type Config struct {
	RawDir    string
	OutputDir string

	Provider string
	APIKey   string
	Model    string
	BaseURL  string

	PromptPath   string
	Fallback     string
	Pattern      string
	Strict       bool
	Serial       bool
	SkipInitial  bool
	ReadAttempts int
	ReadDelay    time.Duration
	ModelTimeout time.Duration
	MetricsAddr  string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		RawDir:       ExpandPath(DefaultRawDir),
		OutputDir:    ExpandPath(DefaultOutputDir),
		Provider:     "gemini",
		PromptPath:   DefaultPrompt,
		Pattern:      DefaultPattern,
		ReadAttempts: 3,
		ReadDelay:    time.Second,
	}
}

// LoadEnvFiles loads KEY=VALUE files into the process environment.
// Missing files are ignored and existing variables are not overridden.
// It returns the files that were loaded.
func LoadEnvFiles(files ...string) ([]string, error) {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return loaded, fmt.Errorf("failed to load %s: %w", f, err)
		}
		loaded = append(loaded, f)
	}
	return loaded, nil
}

// FromEnv reads the configuration from the environment on top of Default.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvRawDir); ok {
		cfg.RawDir = ExpandPath(v)
	}
	if v, ok := get(EnvOutputDir); ok {
		cfg.OutputDir = ExpandPath(v)
	}
	if v, ok := get(EnvProvider); ok {
		cfg.Provider = strings.ToLower(v)
	}
	if v, ok := get(EnvModel); ok {
		cfg.Model = v
	}
	if v, ok := get(EnvOpenAIBase); ok {
		cfg.BaseURL = v
	}
	if v, ok := get(EnvPrompt); ok {
		cfg.PromptPath = ExpandPath(v)
	}
	if v, ok := get(EnvPattern); ok {
		cfg.Pattern = v
	}
	if v, ok := get(EnvFallback); ok {
		cfg.Fallback = v
	}
	if v, ok := get(EnvMetricsAddr); ok {
		cfg.MetricsAddr = v
	}

	keyVar := EnvGeminiKey
	if cfg.Provider == "openai" {
		keyVar = EnvOpenAIKey
	}
	if v, ok := get(keyVar); ok {
		cfg.APIKey = v
	}

	var err error
	for key, dst := range map[string]*bool{
		EnvStrict:      &cfg.Strict,
		EnvSerial:      &cfg.Serial,
		EnvSkipInitial: &cfg.SkipInitial,
	} {
		if v, ok := get(key); ok {
			if *dst, err = strconv.ParseBool(v); err != nil {
				return cfg, fmt.Errorf("invalid %s: %w", key, err)
			}
		}
	}

	if v, ok := get(EnvReadRetries); ok {
		if cfg.ReadAttempts, err = strconv.Atoi(v); err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvReadRetries, err)
		}
	}
	for key, dst := range map[string]*time.Duration{
		EnvReadDelay:    &cfg.ReadDelay,
		EnvModelTimeout: &cfg.ModelTimeout,
	} {
		if v, ok := get(key); ok {
			if *dst, err = time.ParseDuration(v); err != nil {
				return cfg, fmt.Errorf("invalid %s: %w", key, err)
			}
		}
	}

	return cfg, nil
}

// CredentialVar names the environment variable holding the key for the provider.
func (c Config) CredentialVar() string {
	if c.Provider == "openai" {
		return EnvOpenAIKey
	}
	return EnvGeminiKey
}

// Validate checks the configuration is usable for watching.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: set %s", ErrMissingCredential, c.CredentialVar())
	}
	if c.RawDir == "" || c.OutputDir == "" {
		return errors.New("raw and output directories are required")
	}
	if c.Provider != "gemini" && c.Provider != "openai" {
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.ReadAttempts < 1 {
		return fmt.Errorf("read retries must be at least 1, got %d", c.ReadAttempts)
	}
	return nil
}

// ExpandPath replaces a leading "~/" with the user's home directory.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}
