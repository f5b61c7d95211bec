// Package store provides the SQLite-backed persistence layer for
// sessions and messages.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNotFound indicates the referenced session does not exist.
var ErrNotFound = errors.New("store: session not found")

// Store wraps the SQLite database holding sessions and messages.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path and applies the
// schema. It is safe to call on every process start; all schema objects
// use create-if-not-exists semantics. Foreign keys are enforced on the
// connection.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
