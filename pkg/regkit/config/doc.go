// Package config loads regkit settings from YAML or JSON files with
// environment-variable overrides.
//
// # Usage
//
// Load from a file and wire up a logger:
//
//	settings, err := config.FromFile("regkit.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: settings.Level(),
//	}))
//	r := regkit.New[int](regkit.WithLogger(logger))
//
// A minimal config file:
//
//	metrics: true
//	log_level: debug
//	journal:
//	  enabled: true
//	  path: ./lifecycle.db
//
// Environment variables REGKIT_METRICS, REGKIT_TRACING, REGKIT_LOG_LEVEL,
// and REGKIT_JOURNAL_PATH override file values.
package config
