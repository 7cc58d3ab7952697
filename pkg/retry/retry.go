// Package retry runs operations with exponential backoff.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"
)

// Config defines retry behavior with exponential backoff.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0-1.0; fraction of each delay randomized in both directions
}

// DefaultConfig returns 3 retries starting at 100ms, doubling up to 5s with
// 10% jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// RetryableError lets an error declare whether it is transient.
type RetryableError interface {
	error
	IsRetryable() bool
}

// Do runs fn until it succeeds or MaxRetries retries have failed.
// The last error is returned; ctx cancellation during a wait returns ctx.Err().
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult is Do for functions that return a value.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	return run(ctx, cfg, func(error) bool { return true }, fn)
}

// DoIfRetryable retries only while IsRetryable reports the error as transient.
// Permanent errors are returned immediately.
func DoIfRetryable[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	return run(ctx, cfg, IsRetryable, fn)
}

func run[T any](ctx context.Context, cfg *Config, shouldRetry func(error) bool, fn func() (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var result T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}
		result, lastErr = r, err

		if attempt == cfg.MaxRetries || !shouldRetry(err) {
			break
		}

		select {
		case <-time.After(applyJitter(delay, cfg.JitterFactor)):
		case <-ctx.Done():
			return result, ctx.Err()
		}
		delay = nextDelay(delay, cfg)
	}

	return result, lastErr
}

func nextDelay(delay time.Duration, cfg *Config) time.Duration {
	next := time.Duration(float64(delay) * cfg.Multiplier)
	if cfg.MaxDelay > 0 && next > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return next
}

// applyJitter spreads delay by up to +/- jitterFactor of its length.
func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

// retryablePatterns are substrings of transient network, database and
// provider failures.
var retryablePatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"timed out",
	"timeout",
	"temporary failure",
	"too many connections",
	"network is unreachable",
	"429",
	"500",
	"502",
	"503",
	"504",
	"rate limit",
	"too many requests",
	"service unavailable",
	"overloaded",
}

// IsRetryable reports whether err looks transient. Errors implementing
// RetryableError decide for themselves; context cancellation never retries.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var re RetryableError
	if errors.As(err, &re) {
		return re.IsRetryable()
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
