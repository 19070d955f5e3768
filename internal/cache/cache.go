// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache memoizes per-reviewer analysis outcomes in a kv.Store with
// separate expirations for successes and failures.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/review-trust/internal/kv"
	"github.com/pdiddy/review-trust/pkg/types"
)

// EntryVersion is bumped whenever the stored shape changes. Entries written
// with another version are treated as absent.
const EntryVersion = 8

// Kind selects the TTL an entry is stored with.
type Kind string

const (
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// Entry is the serialized cache record. Timestamps are unix milliseconds.
// The payload fields are spread at the top level next to the envelope;
// exactly one of Analysis or Failure is set.
type Entry struct {
	ID        string `json:"-"`
	Version   int    `json:"v"`
	CreatedAt int64  `json:"ts"`
	ExpiresAt int64  `json:"exp"`

	*types.Analysis
	*types.Failure
}

// Kind reports which TTL class the entry belongs to.
func (e Entry) Kind() Kind {
	if e.Failure != nil {
		return KindFailure
	}
	return KindSuccess
}

// Outcome returns the stored payload flagged as served from cache.
func (e Entry) Outcome() types.Outcome {
	return types.Outcome{Analysis: e.Analysis, Failure: e.Failure, Cached: true}
}

// Expires returns the expiry as a time.
func (e Entry) Expires() time.Time {
	return time.UnixMilli(e.ExpiresAt)
}

// ErrInvalidPrefix is returned by New for a key prefix that is empty or
// would match a reserved key.
var ErrInvalidPrefix = errors.New("invalid cache key prefix")

// Cache is safe for concurrent use. Every read-decide-write sequence runs
// under one mutex.
type Cache struct {
	mu    sync.Mutex
	store kv.Store
	cfg   types.CacheConfig
	now   func() time.Time
}

// New returns a Cache over store. reserved lists keys other components
// keep in the same store; the prefix must not match any of them so List
// and Purge never touch them.
func New(store kv.Store, cfg types.CacheConfig, reserved ...string) (*Cache, error) {
	if cfg.Prefix == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPrefix)
	}
	for _, k := range reserved {
		if strings.HasPrefix(k, cfg.Prefix) {
			return nil, fmt.Errorf("%w: %q matches reserved key %q", ErrInvalidPrefix, cfg.Prefix, k)
		}
	}
	return &Cache{store: store, cfg: cfg, now: time.Now}, nil
}

func (c *Cache) key(id string) string {
	return c.cfg.Prefix + id
}

// Get returns the live entry for id, or nil. Expired, stale-version and
// undecodable entries are evicted.
func (c *Cache) Get(ctx context.Context, id string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx, c.key(id))
}

func (c *Cache) load(ctx context.Context, key string) (*Entry, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("loading cache entry: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil || !e.valid() || c.now().UnixMilli() > e.ExpiresAt {
		if err := c.store.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("evicting cache entry: %w", err)
		}
		return nil, nil
	}
	e.ID = strings.TrimPrefix(key, c.cfg.Prefix)
	return &e, nil
}

func (e Entry) valid() bool {
	return e.Version == EntryVersion && (e.Analysis == nil) != (e.Failure == nil)
}

// Put stores outcome for id, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, id string, outcome types.Outcome, kind Kind) error {
	ttl := c.cfg.TTLFail
	if kind == KindSuccess {
		ttl = c.cfg.TTLSuccess
	}

	now := c.now()
	e := Entry{
		Version:   EntryVersion,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(ttl).UnixMilli(),
		Analysis:  outcome.Analysis,
		Failure:   outcome.Failure,
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Set(ctx, c.key(id), string(data)); err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

// Remove drops the entry for id.
func (c *Cache) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Delete(ctx, c.key(id)); err != nil {
		return fmt.Errorf("removing cache entry: %w", err)
	}
	return nil
}

// List returns every live entry ordered by id, evicting dead ones on the way.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.store.ListKeys(ctx, c.cfg.Prefix)
	if err != nil {
		return nil, fmt.Errorf("listing cache keys: %w", err)
	}

	var entries []Entry
	for _, k := range keys {
		e, err := c.load(ctx, k)
		if err != nil {
			return nil, err
		}
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

// Purge deletes every entry under the cache prefix and returns how many
// keys were removed.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.store.ListKeys(ctx, c.cfg.Prefix)
	if err != nil {
		return 0, fmt.Errorf("listing cache keys: %w", err)
	}
	for i, k := range keys {
		if err := c.store.Delete(ctx, k); err != nil {
			return i, fmt.Errorf("purging %s: %w", k, err)
		}
	}
	return len(keys), nil
}
