// Package kv is a small persistent key/value store with the semantics of
// browser local storage: string keys, string values, last write wins.
package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"btmad/internal/kv/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Well-known keys.
const (
	KeyState        = "madApp_state"
	KeyAPIKey       = "btmad_apiKey"
	KeyClientID     = "btmad_clientId"
	KeyClientSecret = "btmad_clientSecret"
	KeyToken        = "btmad_token"
	KeyCurrentUser  = "btmad_currentUser"
)

// Store is a SQLite-backed key/value store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the store at path and applies pending
// migrations. path may be ":memory:".
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across queries
	// and serializes writers within the process.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// CheckMigrations verifies the schema is current.
func (s *Store) CheckMigrations() error {
	return migrations.Check(s.db)
}

// Get returns the value stored under key. ok is false if the key is absent.
func (s *Store) Get(key string) (value string, ok bool, err error) {
	row := s.db.QueryRowContext(context.Background(), "SELECT value FROM entries WHERE key = ?", key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, overwriting any previous value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.ExecContext(context.Background(), "DELETE FROM entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Clear removes every key.
func (s *Store) Clear() error {
	if _, err := s.db.ExecContext(context.Background(), "DELETE FROM entries"); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}
	return nil
}

// Keys returns all keys in lexical order.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.db.QueryContext(context.Background(), "SELECT key FROM entries ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
