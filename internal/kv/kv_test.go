// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kv

import (
	"context"
	"path/filepath"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-trust/pkg/types"
)

func testSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "nested", "kv.db"), "kv")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// exerciseStore runs the same contract checks against any backend.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "tr4:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "tr4:a", "one"))
	require.NoError(t, s.Set(ctx, "tr4:b", "two"))
	require.NoError(t, s.Set(ctx, "other", "x"))
	require.NoError(t, s.Set(ctx, "tr4_c", "wildcard lookalike"))

	v, ok, err := s.Get(ctx, "tr4:a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "one", v)

	// Overwrite.
	require.NoError(t, s.Set(ctx, "tr4:a", "uno"))
	v, _, err = s.Get(ctx, "tr4:a")
	require.NoError(t, err)
	assert.Equal(t, "uno", v)

	keys, err := s.ListKeys(ctx, "tr4:")
	require.NoError(t, err)
	assert.Equal(t, []string{"tr4:a", "tr4:b"}, keys)

	require.NoError(t, s.Delete(ctx, "tr4:a"))
	require.NoError(t, s.Delete(ctx, "tr4:never-existed"))

	_, ok, err = s.Get(ctx, "tr4:a")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err = s.ListKeys(ctx, "tr4:")
	require.NoError(t, err)
	assert.Equal(t, []string{"tr4:b"}, keys)

	keys, err = s.ListKeys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, testSQLite(t))
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := NewSQLiteStore(ctx, path, "kv")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "emergency_lock", "1700000000000"))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(ctx, path, "kv")
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "emergency_lock")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1700000000000", v)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     types.KVConfig
		want    any
		wantErr string
	}{
		{name: "memory", cfg: types.KVConfig{Driver: "memory"}, want: &MemoryStore{}},
		{name: "sqlite default", cfg: types.KVConfig{Path: filepath.Join(t.TempDir(), "a.db")}, want: &SQLiteStore{}},
		{name: "postgres without dsn", cfg: types.KVConfig{Driver: "postgres"}, wantErr: "requires a dsn"},
		{name: "sqlite without path", cfg: types.KVConfig{Driver: "sqlite"}, wantErr: "requires a path"},
		{name: "unknown", cfg: types.KVConfig{Driver: "redis"}, wantErr: "unknown kv driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			assert.IsType(t, tt.want, s)
		})
	}
}

func TestQueries_PlaceholderFormats(t *testing.T) {
	q := newQueries("kv", sq.Dollar)
	query, args, err := q.set("k", "v")
	require.NoError(t, err)
	assert.Contains(t, query, "VALUES ($1,$2)")
	assert.Contains(t, query, "ON CONFLICT (key)")
	assert.Equal(t, []any{"k", "v"}, args)

	query, args, err = q.list("tr4:")
	require.NoError(t, err)
	assert.Contains(t, query, "key LIKE $1")
	assert.Equal(t, []any{"tr4:%"}, args)
}
