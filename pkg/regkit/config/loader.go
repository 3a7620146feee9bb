package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromFile loads settings from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json. Environment overrides are
// applied on top of the file contents.
func FromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Settings{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into Settings and applies environment
// overrides.
func FromYAML(data []byte) (Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse yaml: %w", err)
	}
	applyEnv(&s)
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// FromJSON parses JSON data into Settings and applies environment
// overrides.
func FromJSON(data []byte) (Settings, error) {
	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse json: %w", err)
	}
	applyEnv(&s)
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// FromEnv returns the default settings with environment overrides applied.
func FromEnv() (Settings, error) {
	s := Default()
	applyEnv(&s)
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// applyEnv overrides settings from REGKIT_* environment variables:
// REGKIT_METRICS, REGKIT_TRACING, REGKIT_LOG_LEVEL, REGKIT_JOURNAL_PATH.
// Setting REGKIT_JOURNAL_PATH implies enabling the journal.
func applyEnv(s *Settings) {
	if v, ok := os.LookupEnv("REGKIT_METRICS"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Metrics = b
		}
	}
	if v, ok := os.LookupEnv("REGKIT_TRACING"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Tracing = b
		}
	}
	if v, ok := os.LookupEnv("REGKIT_LOG_LEVEL"); ok {
		s.LogLevel = v
	}
	if v, ok := os.LookupEnv("REGKIT_JOURNAL_PATH"); ok {
		s.Journal.Enabled = true
		s.Journal.Path = v
	}
}
