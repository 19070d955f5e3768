// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists keys in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
	q  queries
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the database at path and ensures the
// table exists.
func NewSQLiteStore(ctx context.Context, path, table string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite kv backend requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer at a time; concurrent analyses share this handle.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, q: newQueries(table, sq.Question)}
	if _, err := db.ExecContext(ctx, s.q.schema()); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	query, args, err := s.q.get(key)
	if err != nil {
		return "", false, fmt.Errorf("building get: %w", err)
	}
	var v string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	query, args, err := s.q.set(key, value)
	if err != nil {
		return fmt.Errorf("building set: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	query, args, err := s.q.del(key)
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	query, args, err := s.q.list(prefix)
	if err != nil {
		return nil, fmt.Errorf("building list: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keys: %w", err)
	}
	return keepPrefixed(keys, prefix), nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
