package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists journal records to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite journal store.
// The path should be a file path (e.g., "./lifecycle.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS lifecycle_journal (
			id TEXT PRIMARY KEY,
			registry_id TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			kind TEXT NOT NULL,
			slot_id INTEGER NOT NULL,
			payload BLOB,
			timestamp TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_journal_registry_id
		ON lifecycle_journal(registry_id, sequence)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	// Sequence is per registry: max + 1 under the store lock
	row := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence), 0) + 1
		FROM lifecycle_journal WHERE registry_id = ?
	`, rec.RegistryID)
	if err := row.Scan(&rec.Sequence); err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lifecycle_journal (id, registry_id, sequence, kind, slot_id, payload, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.RegistryID, rec.Sequence, rec.Kind, int64(rec.SlotID), rec.Payload,
		rec.Timestamp.UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, registryID string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, registry_id, sequence, kind, slot_id, payload, timestamp
		FROM lifecycle_journal
		WHERE registry_id = ?
		ORDER BY sequence
	`, registryID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := make([]*Record, 0)
	for rows.Next() {
		var rec Record
		var slotID int64
		var timestamp string
		if err := rows.Scan(&rec.ID, &rec.RegistryID, &rec.Sequence, &rec.Kind,
			&slotID, &rec.Payload, &timestamp); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.SlotID = uint64(slotID)
		if ts, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
			rec.Timestamp = ts
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Purge implements Store.
func (s *SQLiteStore) Purge(ctx context.Context, registryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM lifecycle_journal WHERE registry_id = ?
	`, registryID); err != nil {
		return fmt.Errorf("purge records: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
