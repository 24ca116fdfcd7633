package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/sediment/pkg/core"
)

const (
	DefaultReadAttempts = 3
	DefaultReadDelay    = time.Second
)

// RetryReader reads files that may still be being written when their
// creation is reported. A read is accepted once the content is non-blank and
// contains a front matter fence.
type RetryReader struct {
	Attempts int
	// Delay is waited before every attempt, including the first.
	Delay  time.Duration
	Logger *slog.Logger
}

// NewRetryReader creates a RetryReader with the default attempts and delay.
func NewRetryReader(logger *slog.Logger) *RetryReader {
	return &RetryReader{
		Attempts: DefaultReadAttempts,
		Delay:    DefaultReadDelay,
		Logger:   logger,
	}
}

// Read implements core.Reader.
func (r *RetryReader) Read(ctx context.Context, path string) (string, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := filepath.Base(path)

	for i := 0; i < attempts; i++ {
		if err := sleep(ctx, r.Delay); err != nil {
			return "", err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if i == attempts-1 {
				return "", err
			}
			logger.Info("read failed, retrying", "file", name, "attempt", i+1, "of", attempts, "error", err)
			continue
		}

		content := string(data)
		if strings.Contains(content, "---") && strings.TrimSpace(content) != "" {
			return content, nil
		}

		if i < attempts-1 {
			logger.Info("file not ready, retrying", "file", name, "attempt", i+1, "of", attempts)
		}
	}

	return "", fmt.Errorf("%w: %s not ready after %d attempts", core.ErrReadExhausted, name, attempts)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ core.Reader = (*RetryReader)(nil)
