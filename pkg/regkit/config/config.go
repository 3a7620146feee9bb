package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// Settings holds regkit's cross-cutting configuration: observability
// toggles and the optional lifecycle journal. Registries themselves need
// no configuration; Settings exists so applications embedding several
// registries can wire logging, metrics, and journaling uniformly.
type Settings struct {
	// Metrics enables OpenTelemetry metrics recording.
	Metrics bool `yaml:"metrics" json:"metrics"`

	// Tracing enables OpenTelemetry span creation.
	Tracing bool `yaml:"tracing" json:"tracing"`

	// LogLevel sets the minimum level for structured logs.
	// One of "debug", "info", "warn", "error". Default: "info".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Journal configures the lifecycle journal sink.
	Journal JournalSettings `yaml:"journal" json:"journal"`
}

// JournalSettings configures where lifecycle notifications are journaled.
type JournalSettings struct {
	// Enabled turns the journal on.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Path is the SQLite database path, or ":memory:" for an in-process
	// store. Required when Enabled is true.
	Path string `yaml:"path" json:"path"`
}

// Default returns the default settings: logging at info, everything else
// off.
func Default() Settings {
	return Settings{
		LogLevel: "info",
	}
}

// Level parses LogLevel into a slog.Level. Unknown values fall back to
// info.
func (s Settings) Level() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the settings for inconsistencies.
func (s Settings) Validate() error {
	switch strings.ToLower(s.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level: %q", s.LogLevel)
	}
	if s.Journal.Enabled && s.Journal.Path == "" {
		return fmt.Errorf("journal enabled but no path configured")
	}
	return nil
}
