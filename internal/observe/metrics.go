// Package observe provides the observability primitives for mouthpiece:
// OpenTelemetry metrics, tracing, trace-aware logging, and HTTP middleware
// tying them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and scraped via
// the Prometheus exporter bridge set up by [InitProvider]. Tests should use
// [NewMetrics] with their own [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all mouthpiece metrics.
const meterName = "github.com/MrWong99/mouthpiece"

// Metrics holds the OpenTelemetry instruments for the application. All
// fields are safe for concurrent use.
type Metrics struct {
	// DetectionDuration tracks phoneme detection latency. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	DetectionDuration metric.Float64Histogram

	// AttemptScore records the score of every scored attempt. Use with
	//   attribute.String("policy", ...)
	AttemptScore metric.Float64Histogram

	// Attempts counts scored attempts. Use with attributes:
	//   attribute.String("mode", ...), attribute.String("policy", ...),
	//   attribute.Bool("accepted", ...)
	Attempts metric.Int64Counter

	// AbandonedAttempts counts submissions that produced no score. Use with
	//   attribute.String("reason", ...)
	AbandonedAttempts metric.Int64Counter

	// ProviderErrors counts detection backend errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// BreakerTransitions counts circuit breaker state changes. Use with
	//   attribute.String("backend", ...), attribute.String("to", ...)
	BreakerTransitions metric.Int64Counter

	// UnknownVisemeTokens counts tokens that resolved to neutral after the
	// fallback chain was exhausted.
	UnknownVisemeTokens metric.Int64Counter

	// ActiveSessions tracks the number of live practice sessions.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("route", ...),
	//   attribute.String("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries in seconds. Detection
// round trips include an upload and a model pass.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30,
}

var scoreBuckets = []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.DetectionDuration, err = m.Float64Histogram("mouthpiece.detection.duration",
		metric.WithDescription("Latency of phoneme detection requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AttemptScore, err = m.Float64Histogram("mouthpiece.attempt.score",
		metric.WithDescription("Distribution of attempt scores by policy."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Attempts, err = m.Int64Counter("mouthpiece.attempts",
		metric.WithDescription("Total scored attempts by mode, policy, and acceptance."),
	); err != nil {
		return nil, err
	}
	if met.AbandonedAttempts, err = m.Int64Counter("mouthpiece.attempts.abandoned",
		metric.WithDescription("Submissions abandoned without a score, by reason."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("mouthpiece.provider.errors",
		metric.WithDescription("Total detection backend errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.BreakerTransitions, err = m.Int64Counter("mouthpiece.provider.breaker_transitions",
		metric.WithDescription("Circuit breaker state changes by backend and target state."),
	); err != nil {
		return nil, err
	}
	if met.UnknownVisemeTokens, err = m.Int64Counter("mouthpiece.viseme.unknown_tokens",
		metric.WithDescription("Tokens that fell back to the neutral frame."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("mouthpiece.active_sessions",
		metric.WithDescription("Number of live practice sessions."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("mouthpiece.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordDetection records one detection round trip.
func (m *Metrics) RecordDetection(ctx context.Context, provider, status string, seconds float64) {
	m.DetectionDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordAttempt records a scored attempt and its score.
func (m *Metrics) RecordAttempt(ctx context.Context, mode, policy string, accepted bool, score float64) {
	m.Attempts.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("policy", policy),
			attribute.Bool("accepted", accepted),
		),
	)
	m.AttemptScore.Record(ctx, score,
		metric.WithAttributes(attribute.String("policy", policy)),
	)
}

// RecordAbandoned records a submission that ended without a score.
func (m *Metrics) RecordAbandoned(ctx context.Context, reason string) {
	m.AbandonedAttempts.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}

// RecordProviderError records a detection backend error.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordBreakerTransition records a detection backend's breaker moving to
// state to.
func (m *Metrics) RecordBreakerTransition(ctx context.Context, backend, to string) {
	m.BreakerTransitions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("backend", backend),
			attribute.String("to", to),
		),
	)
}

// RecordUnknownToken records a token that resolved to the neutral frame.
func (m *Metrics) RecordUnknownToken(ctx context.Context) {
	m.UnknownVisemeTokens.Add(ctx, 1)
}

// RecordHTTPRequest records the duration of one HTTP request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, seconds float64) {
	m.HTTPRequestDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(status)),
		),
	)
}
