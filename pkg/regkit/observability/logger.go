// Package observability provides structured logging, metrics, and tracing
// hooks for regkit registries and events.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// WithRegistry adds registry context to a logger.
// Returns a new logger carrying the registry_id field.
//
// Example:
//
//	enriched := WithRegistry(logger, "reg-1a2b3c4d")
//	enriched.Debug("doing work") // includes registry_id
func WithRegistry(logger *slog.Logger, registryID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("registry_id", registryID))
}

// LogRegister logs the registration of a slot.
func LogRegister(logger *slog.Logger, registryID string, slotID uint64) {
	if logger == nil {
		return
	}
	logger.Debug("slot registered",
		slog.String("registry_id", registryID),
		slog.Uint64("slot_id", slotID),
	)
}

// LogRegisterKeyed logs the registration of a keyed slot.
func LogRegisterKeyed(logger *slog.Logger, registryID string, slotID uint64, key any) {
	if logger == nil {
		return
	}
	logger.Debug("slot registered",
		slog.String("registry_id", registryID),
		slog.Uint64("slot_id", slotID),
		slog.Any("key", key),
	)
}

// LogRemove logs the removal of a slot.
func LogRemove(logger *slog.Logger, registryID string, slotID uint64) {
	if logger == nil {
		return
	}
	logger.Debug("slot removed",
		slog.String("registry_id", registryID),
		slog.Uint64("slot_id", slotID),
	)
}

// LogDispatch logs an event dispatch.
func LogDispatch(logger *slog.Logger, registryID string, observers int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("event dispatched",
		slog.String("registry_id", registryID),
		slog.Int("observers", observers),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogRegistryClosed logs the destruction of a registry family.
func LogRegistryClosed(logger *slog.Logger, registryID string, remaining int) {
	if logger == nil {
		return
	}
	logger.Debug("registry closed",
		slog.String("registry_id", registryID),
		slog.Int("slots_discarded", remaining),
	)
}

// LogJournalError logs a journal append failure (non-fatal).
func LogJournalError(logger *slog.Logger, registryID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("journal append failed",
		slog.String("registry_id", registryID),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
