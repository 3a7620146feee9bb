package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records for testing.
type testHandler struct {
	buf   *bytes.Buffer
	level slog.Level
	attrs []slog.Attr
}

func newTestHandler() *testHandler {
	return &testHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}

	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}

	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})

	enc := json.NewEncoder(h.buf)
	return enc.Encode(data)
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := &testHandler{
		buf:   h.buf,
		level: h.level,
		attrs: make([]slog.Attr, len(h.attrs)+len(attrs)),
	}
	copy(newH.attrs, h.attrs)
	copy(newH.attrs[len(h.attrs):], attrs)
	return newH
}

func (h *testHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *testHandler) getLastRecord() map[string]any {
	lines := bytes.Split(h.buf.Bytes(), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if len(lines[i]) > 0 {
			var m map[string]any
			if err := json.Unmarshal(lines[i], &m); err == nil {
				return m
			}
		}
	}
	return nil
}

func TestWithRegistry(t *testing.T) {
	t.Run("adds registry_id to every record", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		enriched := WithRegistry(logger, "reg-1a2b3c4d")
		enriched.Info("test message")

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "reg-1a2b3c4d", record["registry_id"])
		assert.Equal(t, "test message", record["msg"])
	})

	t.Run("nil logger returns nil", func(t *testing.T) {
		assert.Nil(t, WithRegistry(nil, "reg-1"))
	})
}

func TestLogRegister(t *testing.T) {
	t.Run("logs at DEBUG level", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogRegister(logger, "reg-1", 7)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "slot registered", record["msg"])
		assert.Equal(t, "reg-1", record["registry_id"])
		assert.Equal(t, float64(7), record["slot_id"]) // JSON decodes ints as float64
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogRegister(nil, "reg-1", 0)
		})
	})
}

func TestLogRegisterKeyed(t *testing.T) {
	t.Run("includes the key", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogRegisterKeyed(logger, "reg-1", 3, "session-42")

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "slot registered", record["msg"])
		assert.Equal(t, float64(3), record["slot_id"])
		assert.Equal(t, "session-42", record["key"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogRegisterKeyed(nil, "reg-1", 0, 99)
		})
	})
}

func TestLogRemove(t *testing.T) {
	t.Run("logs removal", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogRemove(logger, "reg-1", 7)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "slot removed", record["msg"])
		assert.Equal(t, float64(7), record["slot_id"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogRemove(nil, "reg-1", 7)
		})
	})
}

func TestLogDispatch(t *testing.T) {
	t.Run("logs fan-out and duration", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogDispatch(logger, "reg-1", 4, 2.5)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "event dispatched", record["msg"])
		assert.Equal(t, float64(4), record["observers"])
		assert.Equal(t, 2.5, record["duration_ms"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogDispatch(nil, "reg-1", 0, 0)
		})
	})
}

func TestLogRegistryClosed(t *testing.T) {
	t.Run("logs discarded slot count", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogRegistryClosed(logger, "reg-1", 3)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "registry closed", record["msg"])
		assert.Equal(t, float64(3), record["slots_discarded"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogRegistryClosed(nil, "reg-1", 0)
		})
	})
}

func TestLogJournalError(t *testing.T) {
	t.Run("logs at WARN level", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)
		testErr := errors.New("disk full")

		LogJournalError(logger, "reg-1", testErr)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "WARN", record["level"])
		assert.Equal(t, "journal append failed", record["msg"])
		assert.Equal(t, "disk full", record["error"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogJournalError(nil, "reg-1", errors.New("err"))
		})
	})
}

func TestTimedOperation(t *testing.T) {
	t.Run("measures duration", func(t *testing.T) {
		done := TimedOperation()
		time.Sleep(10 * time.Millisecond)
		duration := done()

		assert.GreaterOrEqual(t, duration, 10.0)
		assert.Less(t, duration, 100.0)
	})

	t.Run("can be called multiple times", func(t *testing.T) {
		done := TimedOperation()
		time.Sleep(5 * time.Millisecond)
		d1 := done()
		time.Sleep(5 * time.Millisecond)
		d2 := done()

		assert.GreaterOrEqual(t, d2, d1)
	})
}
