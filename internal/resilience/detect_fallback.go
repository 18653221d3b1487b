package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/MrWong99/mouthpiece/pkg/provider/detect"
)

// DetectConfig configures a [DetectFallback].
type DetectConfig struct {
	// Fallback configures failover and the per-backend breakers. Analysis
	// failures never trip a breaker or move on to the next backend.
	Fallback FallbackConfig

	// Retry configures the attempts made against each backend. Only
	// [detect.ErrUnavailable] is retried.
	Retry RetryConfig
}

// DetectFallback implements [detect.Provider] with bounded retries and
// automatic failover across multiple detection backends. Each backend has its
// own circuit breaker.
type DetectFallback struct {
	group *FallbackGroup[detect.Provider]
	retry RetryConfig
}

// Compile-time interface assertion.
var _ detect.Provider = (*DetectFallback)(nil)

// DefaultAttemptTimeout bounds a single detection call when none is
// configured.
const DefaultAttemptTimeout = 20 * time.Second

// NewDetectFallback creates a [DetectFallback] with primary as the preferred
// backend.
func NewDetectFallback(primary detect.Provider, primaryName string, cfg DetectConfig) *DetectFallback {
	cfg.Fallback.CircuitBreaker.IsFailure = isUnavailable
	cfg.Fallback.ShouldFallback = isUnavailable
	cfg.Retry.Retryable = isUnavailable
	if cfg.Retry.AttemptTimeout <= 0 {
		cfg.Retry.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.Retry.Logger == nil {
		cfg.Retry.Logger = cfg.Fallback.Logger
	}
	return &DetectFallback{
		group: NewFallbackGroup(primary, primaryName, cfg.Fallback),
		retry: cfg.Retry,
	}
}

// AddFallback registers an additional detection backend as a fallback.
func (f *DetectFallback) AddFallback(name string, provider detect.Provider) {
	f.group.AddFallback(name, provider)
}

// Backends returns the backend names in the order they are tried.
func (f *DetectFallback) Backends() []string { return f.group.Names() }

// BreakerState reports the circuit state of the named backend.
func (f *DetectFallback) BreakerState(name string) (State, bool) {
	cb := f.group.Breaker(name)
	if cb == nil {
		return StateClosed, false
	}
	return cb.State(), true
}

// Detect runs req against the first healthy backend, retrying each on
// [detect.ErrUnavailable]. The result's Backend names the entry that served
// it. When every backend is unreachable or has an open breaker the error
// wraps [detect.ErrUnavailable] and [ErrAllFailed].
func (f *DetectFallback) Detect(ctx context.Context, req detect.Request) (*detect.Result, error) {
	res, backend, err := Call(f.group, func(p detect.Provider) (*detect.Result, error) {
		return RetryWithResult(ctx, f.retry, func(ctx context.Context) (*detect.Result, error) {
			return p.Detect(ctx, req)
		})
	})
	if err != nil {
		if errors.Is(err, ErrAllFailed) && !errors.Is(err, detect.ErrUnavailable) {
			err = errors.Join(detect.ErrUnavailable, err)
		}
		return nil, err
	}
	if res == nil || res.Backend != "" {
		return res, nil
	}
	served := *res
	served.Backend = backend
	return &served, nil
}

// isUnavailable reports backend outages. Calls the caller cancelled are not
// the backend's fault.
func isUnavailable(err error) bool {
	return errors.Is(err, detect.ErrUnavailable) && !errors.Is(err, context.Canceled)
}
