package config

import (
	"fmt"
	"slices"
)

// ConfigDiff describes what changed between two configs.
// Practice settings and the log level apply without a restart; the other
// flags tell the operator that a restart is needed.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	PracticeChanged bool
	NewPractice     PracticeConfig

	// DetectionChanged, StoreChanged, and ServerChanged cover settings that
	// are only read at startup.
	DetectionChanged bool
	StoreChanged     bool
	ServerChanged    bool
}

// NeedsRestart reports whether any change requires a restart to take effect.
func (d ConfigDiff) NeedsRestart() bool {
	return d.DetectionChanged || d.StoreChanged || d.ServerChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Practice != new.Practice {
		d.PracticeChanged = true
		d.NewPractice = new.Practice
	}

	d.DetectionChanged = diffDetection(old.Detection, new.Detection)
	d.StoreChanged = old.Store != new.Store
	d.ServerChanged = diffServer(old.Server, new.Server)

	return d
}

func diffServer(old, new ServerConfig) bool {
	if old.ListenAddr != new.ListenAddr ||
		old.MaxUploadBytes != new.MaxUploadBytes ||
		old.ShutdownTimeout != new.ShutdownTimeout {
		return true
	}
	if (old.TLS == nil) != (new.TLS == nil) || (old.TLS != nil && *old.TLS != *new.TLS) {
		return true
	}
	return !slices.Equal(old.CORSOrigins, new.CORSOrigins)
}

func diffDetection(old, new DetectionConfig) bool {
	if old.AttemptTimeout != new.AttemptTimeout ||
		old.RetryAttempts != new.RetryAttempts ||
		old.Breaker != new.Breaker {
		return true
	}
	if !sameEntry(old.Primary, new.Primary) {
		return true
	}
	return !slices.EqualFunc(old.Fallbacks, new.Fallbacks, sameEntry)
}

// sameEntry compares the scalar fields of two backend entries. Options are
// compared by key set and formatted value.
func sameEntry(a, b ProviderEntry) bool {
	if a.Name != b.Name || a.APIKey != b.APIKey || a.BaseURL != b.BaseURL ||
		a.Model != b.Model || a.Language != b.Language || a.Timeout != b.Timeout {
		return false
	}
	if len(a.Options) != len(b.Options) {
		return false
	}
	for k, v := range a.Options {
		w, ok := b.Options[k]
		if !ok || !sameValue(v, w) {
			return false
		}
	}
	return true
}

func sameValue(a, b any) bool {
	return fmt.Sprintf("%#v", a) == fmt.Sprintf("%#v", b)
}
