// Package store persists library snapshots to SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/vmunix/fetcharr/internal/media"
)

const schema = `
CREATE TABLE IF NOT EXISTS media (
	key        TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store writes library snapshots as JSON-encoded rows, one per media item.
// Saves are serialized by a single lock; the last full snapshot wins.
type Store struct {
	db  *sql.DB
	log *slog.Logger

	mu sync.Mutex
}

// Open creates the database file (and its directory) if needed and applies
// the schema.
func Open(path string, log *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return New(db, log)
}

// New wraps an existing database handle and applies the schema.
func New(db *sql.DB, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Save replaces the persisted snapshot with the given items.
func (s *Store) Save(items []*media.Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM media`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	for _, m := range items {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode %s: %w", m.Key(), err)
		}
		if _, err := tx.Exec(
			`INSERT INTO media (key, kind, data) VALUES (?, ?, ?)`,
			m.Key(), string(m.Kind), string(data),
		); err != nil {
			return fmt.Errorf("insert %s: %w", m.Key(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	s.log.Debug("snapshot saved", "items", len(items))
	return nil
}

// Load returns the persisted snapshot. An empty database yields an empty
// slice, not an error.
func (s *Store) Load() ([]*media.Media, error) {
	rows, err := s.db.Query(`SELECT data FROM media`)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*media.Media
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var m media.Media
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		items = append(items, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return items, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
