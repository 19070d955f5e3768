// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kv

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists keys in a Postgres table, for deployments where
// several hosts share one lock and cache.
type PostgresStore struct {
	pool *pgxpool.Pool
	q    queries
}

var _ Store = (*PostgresStore)(nil)

// PostgresMaxConns caps the pool. Traffic is one queue worker plus cache
// reads, so a small pool is enough.
var PostgresMaxConns int32 = 4

// NewPostgresStore connects to dsn and ensures the table exists.
func NewPostgresStore(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	cfg.MaxConns = PostgresMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, q: newQueries(table, sq.Dollar)}
	if _, err := pool.Exec(ctx, s.q.schema()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	query, args, err := s.q.get(key)
	if err != nil {
		return "", false, fmt.Errorf("building get: %w", err)
	}
	var v string
	err = s.pool.QueryRow(ctx, query, args...).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return v, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	query, args, err := s.q.set(key, value)
	if err != nil {
		return fmt.Errorf("building set: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	query, args, err := s.q.del(key)
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	query, args, err := s.q.list(prefix)
	if err != nil {
		return nil, fmt.Errorf("building list: %w", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collecting keys: %w", err)
	}
	return keepPrefixed(keys, prefix), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
