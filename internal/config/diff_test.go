package config_test

import (
	"testing"
	"time"

	"github.com/MrWong99/mouthpiece/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ListenAddr:  ":8080",
			LogLevel:    config.LogInfo,
			CORSOrigins: []string{"https://a.example.com"},
		},
		Detection: config.DetectionConfig{
			Primary: config.ProviderEntry{
				Name:    "openai",
				APIKey:  "sk-1",
				Options: map[string]any{"organization": "org-1"},
			},
			Fallbacks:     []config.ProviderEntry{{Name: "whisper", BaseURL: "http://w"}},
			RetryAttempts: 2,
		},
		Store: config.StoreConfig{Driver: config.StoreMemory},
		Practice: config.PracticeConfig{
			Language:     "en",
			MsPerUnit:    150,
			WordPolicy:   "greedy",
			LetterPolicy: "strict-single",
		},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	d := config.Diff(baseConfig(), baseConfig())
	if d.LogLevelChanged || d.PracticeChanged {
		t.Errorf("expected no hot-reload changes, got %+v", d)
	}
	if d.NeedsRestart() {
		t.Errorf("expected NeedsRestart=false for identical configs, got %+v", d)
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Server.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("expected NewLogLevel=debug, got %q", d.NewLogLevel)
	}
	if d.NeedsRestart() {
		t.Error("log level change should not need a restart")
	}
}

func TestDiff_PracticeChanged(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Practice.PauseMs = 500

	d := config.Diff(old, new)
	if !d.PracticeChanged {
		t.Error("expected PracticeChanged=true")
	}
	if d.NewPractice.PauseMs != 500 {
		t.Errorf("NewPractice.PauseMs = %d, want 500", d.NewPractice.PauseMs)
	}
	if d.NeedsRestart() {
		t.Error("practice change should not need a restart")
	}
}

func TestDiff_RestartRequired(t *testing.T) {
	t.Parallel()

	tests := map[string]func(*config.Config){
		"primary api key":  func(c *config.Config) { c.Detection.Primary.APIKey = "sk-2" },
		"primary option":   func(c *config.Config) { c.Detection.Primary.Options["organization"] = "org-2" },
		"fallback removed": func(c *config.Config) { c.Detection.Fallbacks = nil },
		"attempt timeout":  func(c *config.Config) { c.Detection.AttemptTimeout = time.Second },
		"breaker":          func(c *config.Config) { c.Detection.Breaker.MaxFailures = 9 },
		"store driver":     func(c *config.Config) { c.Store.Driver = config.StoreSQLite },
		"listen addr":      func(c *config.Config) { c.Server.ListenAddr = ":9090" },
		"cors origins":     func(c *config.Config) { c.Server.CORSOrigins = append(c.Server.CORSOrigins, "https://b") },
		"tls enabled":      func(c *config.Config) { c.Server.TLS = &config.TLSConfig{CertFile: "c", KeyFile: "k"} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			new := baseConfig()
			mutate(new)
			d := config.Diff(baseConfig(), new)
			if !d.NeedsRestart() {
				t.Errorf("expected NeedsRestart=true, got %+v", d)
			}
			if d.PracticeChanged || d.LogLevelChanged {
				t.Errorf("unexpected hot-reload change: %+v", d)
			}
		})
	}
}
