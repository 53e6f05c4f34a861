package filesystem

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"

	"jukebox/internal/logging"
	"jukebox/internal/metrics"
)

// RetryConfig configures retries for stale file handles.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the settings used for the music directory.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// IsStale reports whether err is an ESTALE (stale NFS file handle) error.
func IsStale(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// Stat is os.Stat with retries on stale handles.
func Stat(ctx context.Context, path string, cfg RetryConfig) (os.FileInfo, error) {
	return retry(ctx, cfg, "stat", path, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// Open is os.Open with retries on stale handles.
func Open(ctx context.Context, path string, cfg RetryConfig) (*os.File, error) {
	return retry(ctx, cfg, "open", path, func() (*os.File, error) {
		return os.Open(path)
	})
}

// ReadDir is os.ReadDir with retries on stale handles.
func ReadDir(ctx context.Context, path string, cfg RetryConfig) ([]os.DirEntry, error) {
	return retry(ctx, cfg, "readdir", path, func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	})
}

func retry[T any](ctx context.Context, cfg RetryConfig, op, path string, fn func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialBackoff
	b.MaxInterval = cfg.MaxBackoff
	b.RandomizationFactor = 0

	attempts := 0
	result, err := backoff.Retry(ctx, func() (T, error) {
		attempts++
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if !IsStale(err) {
			return v, backoff.Permanent(err)
		}
		metrics.FilesystemStaleErrors.WithLabelValues(op).Inc()
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(cfg.MaxRetries)+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logging.Debug("Stale file handle on %s %s, retrying in %v", op, path, wait)
		}),
	)

	switch {
	case err == nil && attempts > 1:
		logging.Info("%s %s succeeded on retry %d", op, path, attempts-1)
	case err != nil && IsStale(err):
		logging.Warn("%s %s failed after %d attempts: %v", op, path, attempts, err)
		metrics.FilesystemRetryFailures.WithLabelValues(op).Inc()
	}
	return result, err
}
