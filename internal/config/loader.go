package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/mouthpiece/pkg/animation"
	"github.com/MrWong99/mouthpiece/pkg/phoneme"
	"github.com/MrWong99/mouthpiece/pkg/scoring"
)

// Defaults applied by [LoadFromReader] to unset fields.
const (
	DefaultListenAddr      = ":8080"
	DefaultMaxUploadBytes  = 10 << 20
	DefaultShutdownTimeout = 10 * time.Second
	DefaultAttemptTimeout  = 20 * time.Second
	DefaultRetryAttempts   = 2
	DefaultSQLitePath      = "mouthpiece.db"
)

// ValidProviderNames lists the detection backends shipped with mouthpiece.
// Used by [Validate] to warn about unrecognised names.
var ValidProviderNames = []string{"httpapi", "whisper", "openai"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills in defaults, and
// validates the result. An empty document decodes to the defaults, which
// still lack the required detection backend.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields of cfg with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Detection.AttemptTimeout == 0 {
		cfg.Detection.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.Detection.RetryAttempts == 0 {
		cfg.Detection.RetryAttempts = DefaultRetryAttempts
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = StoreMemory
	}
	if cfg.Store.Driver == StoreSQLite && cfg.Store.Path == "" {
		cfg.Store.Path = DefaultSQLitePath
	}

	p := &cfg.Practice
	if p.Language == "" {
		p.Language = string(phoneme.English)
	}
	if p.MsPerUnit == 0 {
		p.MsPerUnit = animation.DefaultMsPerUnit
	}
	if p.EdgePaddingMs == 0 {
		p.EdgePaddingMs = animation.DefaultEdgePaddingMs
	}
	if p.PauseMs == 0 {
		p.PauseMs = animation.DefaultPauseMs
	}
	if p.WordPolicy == "" {
		p.WordPolicy = scoring.GreedyName
	}
	if p.LetterPolicy == "" {
		p.LetterPolicy = scoring.StrictSingleName
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "mouthpiece"
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}
	if cfg.Server.MaxUploadBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes %d must not be negative", cfg.Server.MaxUploadBytes))
	}

	// Detection
	if cfg.Detection.Primary.Name == "" {
		errs = append(errs, errors.New("detection.primary.name is required"))
	}
	seen := make(map[string]string)
	entries := append([]ProviderEntry{cfg.Detection.Primary}, cfg.Detection.Fallbacks...)
	for i, e := range entries {
		prefix := "detection.primary"
		if i > 0 {
			prefix = fmt.Sprintf("detection.fallbacks[%d]", i-1)
		}
		if e.Name == "" {
			if i > 0 {
				errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			}
			continue
		}
		key := e.Name + "|" + e.BaseURL
		if prev, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("%s duplicates %s", prefix, prev))
		}
		seen[key] = prefix
		if e.Timeout < 0 {
			errs = append(errs, fmt.Errorf("%s.timeout must not be negative", prefix))
		}
		validateProviderName(prefix, e.Name)
	}
	if cfg.Detection.AttemptTimeout < 0 {
		errs = append(errs, errors.New("detection.attempt_timeout must not be negative"))
	}
	if cfg.Detection.RetryAttempts < 0 || cfg.Detection.RetryAttempts > 5 {
		errs = append(errs, fmt.Errorf("detection.retry_attempts %d is out of range [1, 5]", cfg.Detection.RetryAttempts))
	}
	if cfg.Detection.Breaker.MaxFailures < 0 || cfg.Detection.Breaker.HalfOpenMax < 0 || cfg.Detection.Breaker.ResetTimeout < 0 {
		errs = append(errs, errors.New("detection.breaker values must not be negative"))
	}

	// Store
	switch {
	case cfg.Store.Driver != "" && !cfg.Store.Driver.IsValid():
		errs = append(errs, fmt.Errorf("store.driver %q is invalid; valid values: memory, sqlite, postgres", cfg.Store.Driver))
	case cfg.Store.Driver == StorePostgres && cfg.Store.PostgresDSN == "":
		errs = append(errs, errors.New("store.postgres_dsn is required when store.driver is postgres"))
	case cfg.Store.Driver == StoreMemory:
		slog.Warn("store.driver is memory; attempts and clients are lost on restart")
	}

	errs = append(errs, ValidatePractice(cfg.Practice))

	if r := cfg.Telemetry.TraceSampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("telemetry.trace_sample_ratio %.2f is out of range [0, 1]", r))
	}

	return errors.Join(errs...)
}

// ValidatePractice checks the hot-reloadable practice section.
func ValidatePractice(p PracticeConfig) error {
	var errs []error
	if p.Language != "" {
		if _, ok := phoneme.ParseLanguage(p.Language); !ok {
			errs = append(errs, fmt.Errorf("practice.language %q is not supported", p.Language))
		}
	}
	for name, v := range map[string]int{
		"ms_per_unit":     p.MsPerUnit,
		"edge_padding_ms": p.EdgePaddingMs,
		"pause_ms":        p.PauseMs,
	} {
		if v < 0 || v > 5000 {
			errs = append(errs, fmt.Errorf("practice.%s %d is out of range [0, 5000]", name, v))
		}
	}
	if _, err := scoring.PolicyByName(p.WordPolicy); err != nil {
		errs = append(errs, fmt.Errorf("practice.word_policy: %w", err))
	}
	if _, err := scoring.PolicyByName(p.LetterPolicy); err != nil {
		errs = append(errs, fmt.Errorf("practice.letter_policy: %w", err))
	}
	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is not a shipped backend.
func validateProviderName(field, name string) {
	if slices.Contains(ValidProviderNames, name) {
		return
	}
	slog.Warn("unknown detection backend name; may be a typo or a third-party backend",
		"field", field,
		"name", name,
		"known", ValidProviderNames,
	)
}
