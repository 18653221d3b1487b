package observe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const incomingTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"

// practiceRouter mounts a few practice-shaped routes behind the middleware.
// Tests using it touch the global tracer provider and must not run in
// parallel.
func practiceRouter(t *testing.T) (http.Handler, *sdkmetric.ManualReader, *tracetest.InMemoryExporter) {
	t.Helper()
	m, reader := newTestMetrics(t)
	exp := installTracer(t)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Middleware(m))
	r.Get("/v1/attempts/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"att-1"}`))
	})
	r.Post("/v1/sessions/{client}/attempts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Correlation", CorrelationID(r.Context()))
		w.WriteHeader(http.StatusCreated)
	})
	r.Post("/v1/sessions/{client}/target", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	return r, reader, exp
}

func spanAttr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestMiddleware_NamesSpanAfterRoute(t *testing.T) {
	h, reader, exp := practiceRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/attempts/att-1", nil))

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].Name != "GET /v1/attempts/{id}" {
		t.Errorf("span name = %q, want the route pattern", spans[0].Name)
	}
	if v, ok := spanAttr(spans[0].Attributes, "http.response.status_code"); !ok || v.AsInt64() != 200 {
		t.Errorf("status attribute = %v, %v", v.AsInt64(), ok)
	}
	if _, ok := spanAttr(spans[0].Attributes, "mouthpiece.request_id"); !ok {
		t.Error("span missing request id")
	}

	rm := collect(t, reader)
	hist := findMetric(rm, "mouthpiece.http.request.duration").Data.(metricdata.Histogram[float64])
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Fatalf("data points = %+v", hist.DataPoints)
	}
	if v, ok := hist.DataPoints[0].Attributes.Value("route"); !ok || v.AsString() != "/v1/attempts/{id}" {
		t.Errorf("route attribute = %q, want the pattern, not the raw path", v.AsString())
	}
}

func TestMiddleware_TagsClient(t *testing.T) {
	h, _, exp := practiceRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sessions/cli-7/attempts", nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	span := exp.GetSpans()[0]
	if v, ok := spanAttr(span.Attributes, "mouthpiece.client_id"); !ok || v.AsString() != "cli-7" {
		t.Errorf("client attribute = %q, %v", v.AsString(), ok)
	}
	cid := rec.Header().Get("X-Correlation-ID")
	if len(cid) != 32 || cid != rec.Header().Get("X-Seen-Correlation") {
		t.Errorf("X-Correlation-ID = %q, handler saw %q", cid, rec.Header().Get("X-Seen-Correlation"))
	}
	if !strings.Contains(rec.Header().Get("traceparent"), cid) {
		t.Errorf("traceparent = %q, want trace %s", rec.Header().Get("traceparent"), cid)
	}
}

func TestMiddleware_ContinuesIncomingTrace(t *testing.T) {
	h, _, _ := practiceRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/cli-7/attempts", nil)
	req.Header.Set("traceparent", "00-"+incomingTraceID+"-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Seen-Correlation"); got != incomingTraceID {
		t.Errorf("handler correlation id = %q, want %q", got, incomingTraceID)
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != incomingTraceID {
		t.Errorf("X-Correlation-ID = %q, want %q", got, incomingTraceID)
	}
}

func TestMiddleware_ServerErrorStatus(t *testing.T) {
	h, reader, exp := practiceRouter(t)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/sessions/cli-7/target", nil))

	if v, _ := spanAttr(exp.GetSpans()[0].Attributes, "http.response.status_code"); v.AsInt64() != 503 {
		t.Errorf("status attribute = %d, want 503", v.AsInt64())
	}
	hist := findMetric(collect(t, reader), "mouthpiece.http.request.duration").Data.(metricdata.Histogram[float64])
	if v, _ := hist.DataPoints[0].Attributes.Value("status"); v.AsString() != "503" {
		t.Errorf("status label = %q, want 503", v.AsString())
	}
}

func TestMiddleware_UnroutedRequest(t *testing.T) {
	m, reader := newTestMetrics(t)
	exp := installTracer(t)

	h := Middleware(m)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wav/123", nil))

	if name := exp.GetSpans()[0].Name; name != "GET /wav/123" {
		t.Errorf("span name = %q", name)
	}
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	hist := findMetric(rm, "mouthpiece.http.request.duration").Data.(metricdata.Histogram[float64])
	if v, _ := hist.DataPoints[0].Attributes.Value("route"); v.AsString() != unmatchedRoute {
		t.Errorf("route = %q, want %q", v.AsString(), unmatchedRoute)
	}
	if v, _ := hist.DataPoints[0].Attributes.Value("status"); v.AsString() != "200" {
		t.Errorf("status = %q, want 200 for a handler that never wrote", v.AsString())
	}
}
