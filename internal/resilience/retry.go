package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RetryConfig bounds how often and how long an operation is attempted.
type RetryConfig struct {
	// Attempts is the total number of tries, including the first. Default: 2,
	// a single retry.
	Attempts int

	// AttemptTimeout bounds each try. Zero leaves only the caller's deadline.
	AttemptTimeout time.Duration

	// Backoff is the pause between tries. Zero retries immediately.
	Backoff time.Duration

	// Retryable decides whether an error is worth another try. Nil retries
	// every error.
	Retryable func(error) bool

	// Logger receives retry logs. Defaults to slog.Default().
	Logger *slog.Logger
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts <= 0 {
		c.Attempts = 2
	}
	if c.Retryable == nil {
		c.Retryable = func(error) bool { return true }
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Retry calls fn until it succeeds, returns a non-retryable error, the
// attempts are used up, or ctx is done. Each call receives a context bounded
// by cfg.AttemptTimeout.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := RetryWithResult(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// RetryWithResult is [Retry] for operations that produce a value.
func RetryWithResult[R any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (R, error)) (R, error) {
	cfg = cfg.withDefaults()

	var (
		zero R
		err  error
	)
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			if err != nil {
				return zero, errors.Join(err, cerr)
			}
			return zero, cerr
		}

		var res R
		res, err = runAttempt(ctx, cfg.AttemptTimeout, fn)
		if err == nil {
			return res, nil
		}
		if !cfg.Retryable(err) || attempt == cfg.Attempts {
			break
		}
		cfg.Logger.Warn("attempt failed, retrying", "attempt", attempt, "of", cfg.Attempts, "error", err)

		if cfg.Backoff > 0 {
			t := time.NewTimer(cfg.Backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return zero, errors.Join(err, ctx.Err())
			case <-t.C:
			}
		}
	}
	return zero, err
}

func runAttempt[R any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (R, error)) (R, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	res, err := fn(actx)
	if err != nil && actx.Err() != nil && ctx.Err() == nil {
		err = fmt.Errorf("%w (attempt timed out after %s)", err, timeout)
	}
	return res, err
}
