// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kv provides the durable string key-value capability the pipeline
// persists cache entries and the circuit-breaker lock into. Backends are
// SQLite (default), Postgres, and an in-memory map.
package kv

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/review-trust/pkg/types"
)

// Store is the four-operation persistence contract plus Close.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set creates or replaces the value for key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// ListKeys returns every key starting with prefix, sorted.
	ListKeys(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

const defaultTable = "kv"

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg types.KVConfig) (Store, error) {
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}

	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite", "sqlite3":
		return NewSQLiteStore(ctx, cfg.Path, table)
	case "postgres", "postgresql", "pg":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres kv backend requires a dsn")
		}
		return NewPostgresStore(ctx, cfg.DSN, table)
	case "memory", "mem":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown kv driver %q", cfg.Driver)
	}
}
