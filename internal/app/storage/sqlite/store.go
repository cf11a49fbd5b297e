// Package sqlite implements storage.Store on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/R3E-Network/storefront/internal/app/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS client_state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// Store implements storage.Store backed by SQLite.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Open opens (creating if needed) the SQLite database at path and applies
// the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// A single writer avoids SQLITE_BUSY between the token writer and reader.
	db.SetMaxOpenConns(1)

	store := New(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing handle. The schema is not applied.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Migrate creates the state table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM client_state WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, s.now().UTC())
	if err != nil {
		return fmt.Errorf("sqlite: set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM client_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
