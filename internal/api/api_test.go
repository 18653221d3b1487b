package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/mouthpiece/internal/api"
	"github.com/MrWong99/mouthpiece/internal/health"
	"github.com/MrWong99/mouthpiece/internal/observe"
	"github.com/MrWong99/mouthpiece/internal/practice"
	"github.com/MrWong99/mouthpiece/internal/store"
	"github.com/MrWong99/mouthpiece/pkg/audio/wav"
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect/mock"
)

// ── helpers ──────────────────────────────────────────────────────────────────

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

type testServer struct {
	handler http.Handler
	svc     *practice.Service
	store   store.Store
}

func newTestServer(t *testing.T, p detect.Provider, mutate ...func(*api.Config)) *testServer {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	st := store.NewMemStore()
	svc, err := practice.NewService(practice.Config{
		Detector:     p,
		DetectorName: "mock",
		Store:        st,
		Metrics:      m,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)

	cfg := api.Config{Practice: svc, Metrics: m}
	for _, fn := range mutate {
		fn(&cfg)
	}
	srv, err := api.NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return &testServer{handler: srv, svc: svc, store: st}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	return ts.serve(t, req)
}

func (ts *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
		}
	}
	return rec, env
}

func data[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data: %v (data %s)", err, env.Data)
	}
	return v
}

func recording() []byte {
	return wav.Encode(wav.FromFloat32(make([]float32, 1600)), wav.DefaultSampleRate, 1)
}

func multipartUpload(t *testing.T, path string, audio []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", "attempt.wav")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(audio); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func helloDetector() *mock.Provider {
	return &mock.Provider{Result: &detect.Result{
		Raw:      "h eh l oh",
		Phonemes: phoneme.NewSequence("h", "eh", "l", "oh"),
	}}
}

// ── construction ──────────────────────────────────────────────────────────────

func TestNewServer_RequiresPractice(t *testing.T) {
	t.Parallel()
	if _, err := api.NewServer(api.Config{}); err == nil {
		t.Fatal("NewServer without practice service succeeded")
	}
}

// ── stateless engines ────────────────────────────────────────────────────────

func TestLanguages(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &mock.Provider{})

	rec, env := ts.do(t, http.MethodGet, "/v1/languages", nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := data[struct {
		Languages []string `json:"languages"`
		Default   string   `json:"default"`
	}](t, env)
	if got.Default != "en" {
		t.Errorf("default = %q, want en", got.Default)
	}
	if !strings.Contains(strings.Join(got.Languages, ","), "es") {
		t.Errorf("languages = %v, want es listed", got.Languages)
	}
}

func TestLetters(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &mock.Provider{})

	rec, env := ts.do(t, http.MethodGet, "/v1/languages/en/letters", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := data[struct {
		Letters []struct {
			Letter  string `json:"letter"`
			Primary string `json:"primary"`
		} `json:"letters"`
	}](t, env)
	if len(got.Letters) == 0 {
		t.Fatal("no letters returned")
	}

	rec, env = ts.do(t, http.MethodGet, "/v1/languages/klingon/letters", nil)
	if rec.Code != http.StatusBadRequest || env.Details["lang"] == "" {
		t.Errorf("unsupported language: status = %d, details %v", rec.Code, env.Details)
	}
}

func TestParsePhonemes(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &mock.Provider{})

	rec, env := ts.do(t, http.MethodPost, "/v1/phonemes", map[string]string{"text": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := data[struct {
		Language string   `json:"language"`
		Symbols  []string `json:"symbols"`
	}](t, env)
	if strings.Join(got.Symbols, " ") != "h ɛ l oʊ" {
		t.Errorf("symbols = %v, want [h ɛ l oʊ]", got.Symbols)
	}
	if got.Language != "en" {
		t.Errorf("language = %q, want en", got.Language)
	}
}

func TestParsePhonemes_Validation(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &mock.Provider{})

	tests := []struct {
		name      string
		body      any
		wantField string
	}{
		{"missing text", map[string]string{"language": "en"}, "text"},
		{"unsupported language", map[string]string{"text": "hi", "language": "klingon"}, "language"},
		{"unknown field", `{"text":"hi","colour":"red"}`, ""},
		{"malformed json", `{"text":`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := ts.do(t, http.MethodPost, "/v1/phonemes", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body)
			}
			if env.Success || env.Error != api.CodeValidation {
				t.Errorf("envelope = %+v", env)
			}
			if tt.wantField != "" && env.Details[tt.wantField] == "" {
				t.Errorf("details = %v, want %q flagged", env.Details, tt.wantField)
			}
		})
	}
}

func TestResolveVisemes(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &mock.Provider{})

	rec, env := ts.do(t, http.MethodPost, "/v1/visemes", map[string]any{"tokens": []string{"m", "zzz"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := data[[]struct {
		Token string `json:"token"`
		Frame int    `json:"frame"`
		Name  string `json:"name"`
	}](t, env)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Name != "bmp" {
		t.Errorf("m → %q, want bmp", got[0].Name)
	}
	if got[1].Frame != 0 || got[1].Name != "neutral" {
		t.Errorf("unknown token → %+v, want neutral", got[1])
	}

	rec, _ = ts.do(t, http.MethodPost, "/v1/visemes", map[string]any{"tokens": []string{}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty tokens: status = %d, want 400", rec.Code)
	}
}

type timelineEntry struct {
	Frame   int `json:"frame"`
	StartMs int `json:"start_ms"`
	EndMs   int `json:"end_ms"`
}

type timelineBody struct {
	Timeline   []timelineEntry `json:"timeline"`
	DurationMs int             `json:"duration_ms"`
	Letter     *struct {
		Primary string `json:"primary"`
	} `json:"letter"`
}

func TestBuildTimeline(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &mock.Provider{})

	for name, body := range map[string]any{
		"from text":     map[string]string{"text": "hello"},
		"from phonemes": map[string]any{"phonemes": []string{"h", "ɛ", "l", "oʊ"}},
	} {
		t.Run(name, func(t *testing.T) {
			rec, env := ts.do(t, http.MethodPost, "/v1/timeline", body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			got := data[timelineBody](t, env)
			if got.DurationMs != 100+4*150+100 {
				t.Errorf("duration = %d, want 800", got.DurationMs)
			}
			tl := got.Timeline
			if len(tl) == 0 || tl[0].Frame != 0 || tl[len(tl)-1].Frame != 0 {
				t.Fatalf("timeline should start and end neutral: %+v", tl)
			}
			for i := 1; i < len(tl); i++ {
				if tl[i].StartMs != tl[i-1].EndMs {
					t.Errorf("gap between entries %d and %d", i-1, i)
				}
			}
		})
	}

	rec, env := ts.do(t, http.MethodPost, "/v1/timeline", map[string]string{})
	if rec.Code != http.StatusBadRequest || env.Details["text"] == "" {
		t.Errorf("empty request: status = %d, details %v", rec.Code, env.Details)
	}
}

func TestBuildLetterTimeline(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &mock.Provider{})

	rec, env := ts.do(t, http.MethodPost, "/v1/timeline/letter", map[string]string{"letter": "m"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := data[timelineBody](t, env)
	if len(got.Timeline) != 4 {
		t.Errorf("timeline has %d entries, want 4", len(got.Timeline))
	}
	if got.Letter == nil || got.Letter.Primary != "m" {
		t.Errorf("letter = %+v, want primary m", got.Letter)
	}

	rec, _ = ts.do(t, http.MethodPost, "/v1/timeline/letter", map[string]string{"letter": "7"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown letter: status = %d, want 400", rec.Code)
	}
}

func TestScore(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &mock.Provider{})

	rec, env := ts.do(t, http.MethodPost, "/v1/score", map[string]any{
		"target":   []string{"h", "ɛ", "l", "oʊ"},
		"detected": []string{"h", "eh", "l", "oh"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := data[struct {
		Score    float64 `json:"score"`
		Accepted bool    `json:"accepted"`
		Policy   string  `json:"policy"`
	}](t, env)
	if got.Score != 1 || !got.Accepted || got.Policy != "greedy" {
		t.Errorf("result = %+v", got)
	}

	rec, env = ts.do(t, http.MethodPost, "/v1/score", map[string]any{
		"text":     "cat",
		"detected": []string{"k", "æ", "t"},
		"policy":   "levenshtein",
	})
	if rec.Code != http.StatusBadRequest || env.Error != api.CodeValidation {
		t.Errorf("unknown policy: status = %d, error %q", rec.Code, env.Error)
	}
}

// ── sessions ─────────────────────────────────────────────────────────────────

func TestSession_WordFlow(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, helloDetector())

	rec, env := ts.do(t, http.MethodPost, "/v1/sessions/cli-1/target", map[string]string{"mode": "word", "text": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set target: status = %d, body %s", rec.Code, rec.Body)
	}
	target := data[struct {
		Mode     string          `json:"mode"`
		Timeline []timelineEntry `json:"timeline"`
	}](t, env)
	if target.Mode != "word" || len(target.Timeline) == 0 {
		t.Errorf("target = %+v", target)
	}

	rec, env = ts.serve(t, multipartUpload(t, "/v1/sessions/cli-1/attempts", recording()))
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status = %d, body %s", rec.Code, rec.Body)
	}
	out := data[struct {
		AttemptID string `json:"attempt_id"`
		Result    struct {
			Score    float64 `json:"score"`
			Accepted bool    `json:"accepted"`
		} `json:"result"`
	}](t, env)
	if out.Result.Score != 1 || !out.Result.Accepted {
		t.Errorf("result = %+v", out.Result)
	}
	if out.AttemptID == "" {
		t.Fatal("attempt was not recorded")
	}

	rec, env = ts.do(t, http.MethodGet, "/v1/attempts?client_id=cli-1&target=HELLO", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list attempts: status = %d", rec.Code)
	}
	attempts := data[[]store.Attempt](t, env)
	if len(attempts) != 1 || attempts[0].ID != out.AttemptID {
		t.Errorf("attempts = %+v", attempts)
	}

	rec, env = ts.do(t, http.MethodGet, "/v1/attempts/"+out.AttemptID, nil)
	if rec.Code != http.StatusOK || data[store.Attempt](t, env).Target != "hello" {
		t.Errorf("get attempt: status = %d, body %s", rec.Code, rec.Body)
	}

	rec, env = ts.do(t, http.MethodGet, "/v1/sessions/cli-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get session: status = %d", rec.Code)
	}
	sess := data[struct {
		Last  *struct{ Target string } `json:"last"`
		Cache struct{ Misses int }     `json:"cache"`
	}](t, env)
	if sess.Last == nil || sess.Last.Target != "hello" {
		t.Errorf("session last = %+v", sess.Last)
	}
	if sess.Cache.Misses == 0 {
		t.Error("session cache was never consulted")
	}

	rec, _ = ts.do(t, http.MethodDelete, "/v1/attempts/"+out.AttemptID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete attempt: status = %d", rec.Code)
	}
	rec, env = ts.do(t, http.MethodGet, "/v1/attempts/"+out.AttemptID, nil)
	if rec.Code != http.StatusNotFound || env.Error != api.CodeNotFound {
		t.Errorf("deleted attempt: status = %d, error %q", rec.Code, env.Error)
	}
}

func TestSession_LetterTargetAndRawUpload(t *testing.T) {
	t.Parallel()
	p := &mock.Provider{Result: &detect.Result{Phonemes: phoneme.NewSequence("m", "b")}}
	ts := newTestServer(t, p)

	rec, env := ts.do(t, http.MethodPost, "/v1/sessions/cli-2/target", map[string]string{"mode": "letter", "text": "m"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set target: status = %d, body %s", rec.Code, rec.Body)
	}
	if got := data[struct{ Policy string }](t, env).Policy; got != "strict-single" {
		t.Errorf("policy = %q, want strict-single", got)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/cli-2/attempts", bytes.NewReader(recording()))
	req.Header.Set("Content-Type", "audio/wav")
	rec, env = ts.serve(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status = %d, body %s", rec.Code, rec.Body)
	}
	out := data[struct {
		Result struct {
			Accepted bool `json:"accepted"`
		} `json:"result"`
	}](t, env)
	if out.Result.Accepted {
		t.Error("m followed by b should be rejected")
	}

	rec, env = ts.do(t, http.MethodGet, "/v1/sessions/cli-2/target", nil)
	if rec.Code != http.StatusOK || data[struct{ Text string }](t, env).Text != "m" {
		t.Errorf("get target: status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestSession_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		detectErr  error
		setTarget  bool
		audio      []byte
		wantStatus int
		wantCode   string
	}{
		{"no session", nil, false, recording(), http.StatusConflict, api.CodeNoTarget},
		{"invalid audio", nil, true, []byte("not a wav"), http.StatusBadRequest, api.CodeInvalidAudio},
		{"backend unavailable", fmt.Errorf("%w: connection refused", detect.ErrUnavailable), true, recording(), http.StatusServiceUnavailable, api.CodeBackendUnavailable},
		{"analysis failed", fmt.Errorf("%w: no speech", detect.ErrAnalysisFailed), true, recording(), http.StatusUnprocessableEntity, api.CodeAnalysisFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts := newTestServer(t, &mock.Provider{Err: tt.detectErr})
			if tt.setTarget {
				if rec, _ := ts.do(t, http.MethodPost, "/v1/sessions/c/target", map[string]string{"mode": "word", "text": "cat"}); rec.Code != http.StatusOK {
					t.Fatalf("set target: status = %d", rec.Code)
				}
			}
			rec, env := ts.serve(t, multipartUpload(t, "/v1/sessions/c/attempts", tt.audio))
			if rec.Code != tt.wantStatus || env.Error != tt.wantCode {
				t.Errorf("status = %d (%q), want %d (%q); body %s", rec.Code, env.Error, tt.wantStatus, tt.wantCode, rec.Body)
			}
		})
	}
}

func TestSession_UploadTooLarge(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, helloDetector(), func(c *api.Config) { c.MaxUploadBytes = 128 })
	ts.do(t, http.MethodPost, "/v1/sessions/c/target", map[string]string{"mode": "word", "text": "hello"})

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/c/attempts", bytes.NewReader(recording()))
	req.Header.Set("Content-Type", "audio/wav")
	rec, env := ts.serve(t, req)
	if rec.Code != http.StatusRequestEntityTooLarge || env.Error != api.CodePayloadTooLarge {
		t.Errorf("status = %d (%q), want 413", rec.Code, env.Error)
	}
}

func TestSession_BadTargetAndClose(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &mock.Provider{})

	rec, env := ts.do(t, http.MethodPost, "/v1/sessions/c/target", map[string]string{"mode": "sentence", "text": "hi"})
	if rec.Code != http.StatusBadRequest || env.Details["mode"] == "" {
		t.Errorf("bad mode: status = %d, details %v", rec.Code, env.Details)
	}
	rec, _ = ts.do(t, http.MethodPost, "/v1/sessions/c/target", map[string]string{"mode": "letter", "text": "7"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown letter: status = %d", rec.Code)
	}

	if _, ok := ts.svc.LookupSession("c"); !ok {
		t.Fatal("session should exist after a target request")
	}
	rec, _ = ts.do(t, http.MethodDelete, "/v1/sessions/c", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("close: status = %d", rec.Code)
	}
	rec, _ = ts.do(t, http.MethodGet, "/v1/sessions/c", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("closed session: status = %d, want 404", rec.Code)
	}
}

// ── clients and settings ─────────────────────────────────────────────────────

func TestClients_CRUD(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &mock.Provider{})

	rec, env := ts.do(t, http.MethodPost, "/v1/clients", map[string]string{"name": "Alice", "language": "Spanish"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", rec.Code, rec.Body)
	}
	alice := data[store.Client](t, env)
	if alice.ID == "" || alice.Language != phoneme.Spanish {
		t.Errorf("created = %+v", alice)
	}
	ts.do(t, http.MethodPost, "/v1/clients", map[string]string{"name": "Bob"})

	rec, env = ts.do(t, http.MethodGet, "/v1/clients?name=ali", nil)
	if got := data[[]store.Client](t, env); rec.Code != http.StatusOK || len(got) != 1 || got[0].ID != alice.ID {
		t.Errorf("list by name: status = %d, got %+v", rec.Code, got)
	}
	rec, env = ts.do(t, http.MethodGet, "/v1/clients?language=en", nil)
	if got := data[[]store.Client](t, env); len(got) != 1 || got[0].Name != "Bob" {
		t.Errorf("list by language: status = %d, got %+v", rec.Code, got)
	}

	rec, env = ts.do(t, http.MethodPut, "/v1/clients/"+alice.ID, map[string]string{"name": "Alice B", "notes": "rolled r"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body %s", rec.Code, rec.Body)
	}
	updated := data[store.Client](t, env)
	if updated.Name != "Alice B" || updated.Language != phoneme.Spanish || updated.Notes != "rolled r" {
		t.Errorf("updated = %+v", updated)
	}

	rec, _ = ts.do(t, http.MethodDelete, "/v1/clients/"+alice.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d", rec.Code)
	}
	rec, env = ts.do(t, http.MethodGet, "/v1/clients/"+alice.ID, nil)
	if rec.Code != http.StatusNotFound || env.Error != api.CodeNotFound {
		t.Errorf("get deleted: status = %d, error %q", rec.Code, env.Error)
	}
	rec, _ = ts.do(t, http.MethodPut, "/v1/clients/missing", map[string]string{"name": "X"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("update missing: status = %d, want 404", rec.Code)
	}
	rec, _ = ts.do(t, http.MethodGet, "/v1/clients?limit=-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit: status = %d, want 400", rec.Code)
	}
}

func TestSettings(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &mock.Provider{})

	rec, env := ts.do(t, http.MethodGet, "/v1/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("practice settings: status = %d", rec.Code)
	}
	set := data[struct {
		MsPerUnit  int    `json:"ms_per_unit"`
		WordPolicy string `json:"word_policy"`
	}](t, env)
	if set.MsPerUnit != 150 || set.WordPolicy != "greedy" {
		t.Errorf("practice settings = %+v", set)
	}

	rec, _ = ts.do(t, http.MethodGet, "/v1/settings/theme", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing setting: status = %d, want 404", rec.Code)
	}
	rec, _ = ts.do(t, http.MethodPut, "/v1/settings/theme", map[string]string{"value": "dark"})
	if rec.Code != http.StatusOK {
		t.Fatalf("put setting: status = %d, body %s", rec.Code, rec.Body)
	}
	rec, env = ts.do(t, http.MethodGet, "/v1/settings/theme", nil)
	if got := data[struct{ Value string }](t, env).Value; rec.Code != http.StatusOK || got != "dark" {
		t.Errorf("get setting: status = %d, value %q", rec.Code, got)
	}
}

// ── ambient routes ───────────────────────────────────────────────────────────

func TestHealthAndMetricsRoutes(t *testing.T) {
	t.Parallel()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	ts := newTestServer(t, &mock.Provider{}, func(c *api.Config) {
		c.Health = health.New(health.PingChecker("store", c.Practice.Store()))
		c.MetricsHandler = metrics
	})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d", path, rec.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, &mock.Provider{}, func(c *api.Config) {
		c.CORSOrigins = []string{"https://practice.example.com"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/v1/phonemes", nil)
	req.Header.Set("Origin", "https://practice.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://practice.example.com" {
		t.Errorf("allowed origin header = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/languages", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin got allow header %q", got)
	}
}
