package observe

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// installTracer registers an in-memory tracer provider globally for the
// duration of the test. Tests using it must not run in parallel.
func installTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(orig)
		_ = tp.Shutdown(context.Background())
	})
	return exp
}

// captureLogs redirects the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })
	return &buf
}

func TestStartSpan_CorrelationID(t *testing.T) {
	exp := installTracer(t)

	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID(background) = %q, want empty", got)
	}

	seen := make(map[string]bool)
	for range 20 {
		ctx, span := StartSpan(context.Background(), "practice.detect")
		cid := CorrelationID(ctx)
		span.End()
		if len(cid) != 32 || strings.Trim(cid, "0123456789abcdef") != "" {
			t.Fatalf("correlation id %q is not 32 hex characters", cid)
		}
		if seen[cid] {
			t.Fatalf("duplicate correlation id %s", cid)
		}
		seen[cid] = true
	}

	spans := exp.GetSpans()
	if len(spans) != 20 || spans[0].Name != "practice.detect" {
		t.Errorf("recorded %d spans, first %q", len(spans), spans[0].Name)
	}
}

func TestEndSpan(t *testing.T) {
	exp := installTracer(t)

	_, ok := StartSpan(context.Background(), "detect.ok")
	EndSpan(ok, nil)
	_, failed := StartSpan(context.Background(), "detect.failed")
	EndSpan(failed, errors.New("backend down"))

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	if spans[0].Status.Code == codes.Error {
		t.Error("successful span marked as error")
	}
	if spans[1].Status.Code != codes.Error || spans[1].Status.Description != "backend down" {
		t.Errorf("failed span status = %+v", spans[1].Status)
	}
	if len(spans[1].Events) == 0 {
		t.Error("failed span has no error event")
	}
}

func TestClientID(t *testing.T) {
	t.Parallel()

	if got := ClientID(context.Background()); got != "" {
		t.Errorf("ClientID(background) = %q", got)
	}
	ctx := WithClientID(context.Background(), "cli-7")
	if got := ClientID(ctx); got != "cli-7" {
		t.Errorf("ClientID = %q, want cli-7", got)
	}
}

func TestLogger_Enrichment(t *testing.T) {
	installTracer(t)
	buf := captureLogs(t)

	Logger(context.Background()).Info("plain")
	plain := buf.String()
	for _, key := range []string{"trace_id", "span_id", "client_id", "request_id"} {
		if strings.Contains(plain, key) {
			t.Errorf("plain log contains %s: %s", key, plain)
		}
	}
	buf.Reset()

	// Run through the chi RequestID middleware to obtain a request id.
	var ctx context.Context
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	ctx = WithClientID(ctx, "cli-7")
	ctx, span := StartSpan(ctx, "practice.submit")
	defer span.End()

	Logger(ctx).Info("enriched")
	logged := buf.String()
	for _, want := range []string{"trace_id=", "span_id=", "client_id=cli-7", "request_id="} {
		if !strings.Contains(logged, want) {
			t.Errorf("log missing %s: %s", want, logged)
		}
	}
}

func TestTracer_ScopeName(t *testing.T) {
	exp := installTracer(t)

	_, span := Tracer().Start(context.Background(), "scope")
	span.End()
	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].InstrumentationScope.Name != tracerName {
		t.Errorf("scope = %+v", spans)
	}
}
