package journal

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory journal store for testing.
// Records are lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]*Record // registryID -> records in append order
	closed bool
}

// NewMemoryStore creates a new in-memory journal store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]*Record),
	}
}

// Append implements Store.
func (m *MemoryStore) Append(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	stored := *rec
	stored.Sequence = int64(len(m.data[rec.RegistryID])) + 1
	if rec.Payload != nil {
		// Copy payload to avoid retaining caller's slice
		stored.Payload = make([]byte, len(rec.Payload))
		copy(stored.Payload, rec.Payload)
	}

	m.data[rec.RegistryID] = append(m.data[rec.RegistryID], &stored)
	rec.Sequence = stored.Sequence
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, registryID string) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	records := m.data[registryID]
	out := make([]*Record, len(records))
	for i, rec := range records {
		cp := *rec
		out[i] = &cp
	}
	return out, nil
}

// Purge implements Store.
func (m *MemoryStore) Purge(_ context.Context, registryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, registryID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}
