package config_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/mouthpiece/internal/config"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect"
	"github.com/MrWong99/mouthpiece/pkg/provider/detect/mock"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":9090"
  log_level: debug
  cors_origins: ["https://practice.example.com"]
  max_upload_bytes: 2097152
  shutdown_timeout: 5s

detection:
  primary:
    name: httpapi
    base_url: http://localhost:5000
    timeout: 15s
  fallbacks:
    - name: whisper
      base_url: http://localhost:8081
      model: base
      language: en
    - name: openai
      api_key: sk-test
      options:
        organization: org-1
  attempt_timeout: 10s
  retry_attempts: 3
  breaker:
    max_failures: 4
    reset_timeout: 30s
    half_open_max: 1

store:
  driver: sqlite
  path: /var/lib/mouthpiece/attempts.db

practice:
  language: es
  ms_per_unit: 120
  edge_padding_ms: 80
  pause_ms: 250
  word_policy: greedy
  letter_policy: strict-single

telemetry:
  service_name: mouthpiece-test
  trace_sample_ratio: 0.25
`

const minimalYAML = `
detection:
  primary:
    name: httpapi
    base_url: http://localhost:5000
`

// ── YAML loading ──────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("server.listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":9090")
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("server.log_level: got %q, want %q", cfg.Server.LogLevel, config.LogDebug)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("server.shutdown_timeout: got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Detection.Primary.Timeout != 15*time.Second {
		t.Errorf("detection.primary.timeout: got %v", cfg.Detection.Primary.Timeout)
	}
	if len(cfg.Detection.Fallbacks) != 2 {
		t.Fatalf("detection.fallbacks: got %d, want 2", len(cfg.Detection.Fallbacks))
	}
	if cfg.Detection.Fallbacks[1].Options["organization"] != "org-1" {
		t.Errorf("detection.fallbacks[1].options: got %v", cfg.Detection.Fallbacks[1].Options)
	}
	if cfg.Detection.Breaker.MaxFailures != 4 {
		t.Errorf("detection.breaker.max_failures: got %d, want 4", cfg.Detection.Breaker.MaxFailures)
	}
	if cfg.Store.Driver != config.StoreSQLite {
		t.Errorf("store.driver: got %q", cfg.Store.Driver)
	}
	if cfg.Practice.MsPerUnit != 120 || cfg.Practice.PauseMs != 250 {
		t.Errorf("practice timings: got %+v", cfg.Practice)
	}
	if cfg.Telemetry.TraceSampleRatio != 0.25 {
		t.Errorf("telemetry.trace_sample_ratio: got %.2f", cfg.Telemetry.TraceSampleRatio)
	}
}

func TestLoadFromReader_AppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != config.DefaultListenAddr {
		t.Errorf("listen_addr: got %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log_level: got %q", cfg.Server.LogLevel)
	}
	if cfg.Store.Driver != config.StoreMemory {
		t.Errorf("store.driver: got %q", cfg.Store.Driver)
	}
	if cfg.Detection.RetryAttempts != config.DefaultRetryAttempts {
		t.Errorf("retry_attempts: got %d", cfg.Detection.RetryAttempts)
	}
	want := config.PracticeConfig{
		Language:      "en",
		MsPerUnit:     150,
		EdgePaddingMs: 100,
		PauseMs:       300,
		WordPolicy:    "greedy",
		LetterPolicy:  "strict-single",
	}
	if cfg.Practice != want {
		t.Errorf("practice: got %+v, want %+v", cfg.Practice, want)
	}
	if cfg.Telemetry.ServiceName != "mouthpiece" {
		t.Errorf("telemetry.service_name: got %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoadFromReader_SQLiteDefaultPath(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(minimalYAML + "store:\n  driver: sqlite\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Path != config.DefaultSQLitePath {
		t.Errorf("store.path: got %q, want %q", cfg.Store.Path, config.DefaultSQLitePath)
	}
}

func TestLoadFromReader_EmptyNeedsDetector(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader(""))
	if err == nil {
		t.Fatal("expected error for empty config, got nil")
	}
	if !strings.Contains(err.Error(), "detection.primary.name") {
		t.Errorf("error should mention detection.primary.name, got: %v", err)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader(minimalYAML + "practise:\n  language: en\n"))
	if err == nil {
		t.Fatal("expected error for misspelt section, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	if _, err := config.Load("/nonexistent/mouthpiece.yaml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

// ── Registry ──────────────────────────────────────────────────────────────────

func TestRegistry_UnknownDetector(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	_, err := reg.CreateDetector(config.ProviderEntry{Name: "nonexistent"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got %v", err)
	}
}

func TestRegistry_RegisteredDetector(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	want := &mock.Provider{}
	var gotEntry config.ProviderEntry
	reg.RegisterDetector("test", func(e config.ProviderEntry) (detect.Provider, error) {
		gotEntry = e
		return want, nil
	})

	got, err := reg.CreateDetector(config.ProviderEntry{Name: "test", Model: "m1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != detect.Provider(want) {
		t.Error("returned provider is not the expected instance")
	}
	if gotEntry.Model != "m1" {
		t.Errorf("factory received model %q, want m1", gotEntry.Model)
	}
	if _, err := got.Detect(context.Background(), detect.Request{}); err != nil {
		t.Errorf("Detect() error = %v", err)
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	wantErr := errors.New("factory boom")
	reg.RegisterDetector("broken", func(config.ProviderEntry) (detect.Provider, error) {
		return nil, wantErr
	})
	_, err := reg.CreateDetector(config.ProviderEntry{Name: "broken"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected factory error %v, got %v", wantErr, err)
	}
}

func TestRegistry_Detectors(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	factory := func(config.ProviderEntry) (detect.Provider, error) { return &mock.Provider{}, nil }
	reg.RegisterDetector("whisper", factory)
	reg.RegisterDetector("httpapi", factory)
	reg.RegisterDetector("whisper", factory)

	got := reg.Detectors()
	if len(got) != 2 || got[0] != "httpapi" || got[1] != "whisper" {
		t.Errorf("Detectors() = %v, want [httpapi whisper]", got)
	}
}

func TestLogLevel_Slog(t *testing.T) {
	t.Parallel()

	tests := map[config.LogLevel]slog.Level{
		config.LogDebug: slog.LevelDebug,
		config.LogInfo:  slog.LevelInfo,
		config.LogWarn:  slog.LevelWarn,
		config.LogError: slog.LevelError,
		"verbose":       slog.LevelInfo,
	}
	for level, want := range tests {
		if got := level.Slog(); got != want {
			t.Errorf("LogLevel(%q).Slog() = %v, want %v", level, got, want)
		}
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("../../configs/example.yaml")
	if err != nil {
		t.Fatalf("Load(example.yaml) error = %v", err)
	}
	if cfg.Detection.Primary.Name != "httpapi" || len(cfg.Detection.Fallbacks) != 1 {
		t.Errorf("detection = %+v", cfg.Detection)
	}
	if cfg.Store.Driver != config.StoreSQLite {
		t.Errorf("Store.Driver = %q, want sqlite", cfg.Store.Driver)
	}
}
