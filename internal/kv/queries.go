// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kv

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// queries builds the statements both SQL backends share. Only the
// placeholder format differs between SQLite and Postgres.
type queries struct {
	table string
	sb    sq.StatementBuilderType
}

func newQueries(table string, ph sq.PlaceholderFormat) queries {
	return queries{
		table: table,
		sb:    sq.StatementBuilder.PlaceholderFormat(ph),
	}
}

func (q queries) schema() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`, q.table)
}

func (q queries) get(key string) (string, []any, error) {
	return q.sb.Select("value").From(q.table).Where(sq.Eq{"key": key}).ToSql()
}

func (q queries) set(key, value string) (string, []any, error) {
	return q.sb.Insert(q.table).
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value").
		ToSql()
}

func (q queries) del(key string) (string, []any, error) {
	return q.sb.Delete(q.table).Where(sq.Eq{"key": key}).ToSql()
}

// list matches with LIKE; callers re-check the prefix because '_' and '%'
// in the prefix are wildcards to LIKE.
func (q queries) list(prefix string) (string, []any, error) {
	return q.sb.Select("key").
		From(q.table).
		Where(sq.Like{"key": prefix + "%"}).
		OrderBy("key").
		ToSql()
}

func keepPrefixed(keys []string, prefix string) []string {
	out := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}
