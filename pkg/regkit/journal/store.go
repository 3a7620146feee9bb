// Package journal provides an append-only audit sink for registry
// lifecycle notifications.
//
// A Recorder subscribes to a TracedRegistry and appends one Record per
// Registered/Unregistered notification to a Store. The journal is an
// observability artifact: it is never read back to reconstruct registry
// state, and the registry itself stays purely in-memory.
//
// Appends run synchronously inside notification dispatch, which in the
// unregister case runs under the registry's exclusive lock. Prefer
// MemoryStore or a local SQLite file so appends stay cheap.
package journal

import (
	"context"
	"errors"
	"time"
)

// Record is one journaled lifecycle notification.
type Record struct {
	// ID uniquely identifies the record.
	ID string

	// RegistryID identifies the registry family the notification came from.
	RegistryID string

	// Sequence orders records within one registry. Assigned by the store.
	Sequence int64

	// Kind is the lifecycle transition: "registered" or "unregistered".
	Kind string

	// SlotID is the slot's identifier within the registry.
	SlotID uint64

	// Payload is the JSON-encoded slot value, nil if it did not marshal.
	Payload []byte

	// Timestamp is when the notification was observed.
	Timestamp time.Time
}

// Store persists journal records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append adds a record, assigning its Sequence.
	Append(ctx context.Context, rec *Record) error

	// List returns all records for a registry, ordered by sequence.
	// Returns an empty slice (not an error) for an unknown registry.
	List(ctx context.Context, registryID string) ([]*Record, error)

	// Purge removes all records for a registry.
	// Returns nil if the registry has no records.
	Purge(ctx context.Context, registryID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// ErrStoreClosed indicates the store has been closed.
var ErrStoreClosed = errors.New("journal store closed")
