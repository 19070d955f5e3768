// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/pdiddy/review-trust/internal/kv"
)

// LockKey is the kv key holding the lock expiry in unix milliseconds.
const LockKey = "emergency_lock"

// BreakerStatus is a point-in-time view of the breaker.
type BreakerStatus struct {
	// Open is the in-process latch.
	Open bool `json:"open" yaml:"open"`

	// LockedUntil is the persisted lock expiry, zero when none is stored.
	LockedUntil time.Time `json:"locked_until,omitempty" yaml:"locked_until,omitempty"`

	// Active reports whether LockedUntil is still in the future.
	Active bool `json:"active" yaml:"active"`
}

// CircuitBreaker latches open when abuse-defense content is seen. The latch
// lasts for the life of the process; the persisted lock makes later
// processes refuse traffic until it expires.
type CircuitBreaker struct {
	mu          sync.Mutex
	store       kv.Store
	lock        time.Duration
	open        bool
	lockedUntil time.Time
	now         func() time.Time
}

// NewCircuitBreaker returns a closed breaker persisting into store.
func NewCircuitBreaker(store kv.Store, lockDuration time.Duration) *CircuitBreaker {
	return &CircuitBreaker{store: store, lock: lockDuration, now: time.Now}
}

// Check returns a *LockError when the breaker is open or a persisted lock
// is still active. An active persisted lock latches the breaker open.
func (b *CircuitBreaker) Check(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open {
		return &LockError{Until: b.lockedUntil}
	}

	until, ok, err := b.persisted(ctx)
	if err != nil {
		return err
	}
	if ok && until.After(b.now()) {
		b.open = true
		b.lockedUntil = until
		return &LockError{Until: until}
	}
	return nil
}

// Trip opens the breaker and persists now+lockDuration.
func (b *CircuitBreaker) Trip(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.open = true
	b.lockedUntil = b.now().Add(b.lock)
	v := strconv.FormatInt(b.lockedUntil.UnixMilli(), 10)
	if err := b.store.Set(ctx, LockKey, v); err != nil {
		return fmt.Errorf("persisting circuit lock: %w", err)
	}
	return nil
}

// Reset closes the breaker and clears the persisted lock.
func (b *CircuitBreaker) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.open = false
	b.lockedUntil = time.Time{}
	if err := b.store.Delete(ctx, LockKey); err != nil {
		return fmt.Errorf("clearing circuit lock: %w", err)
	}
	return nil
}

// IsOpen reports the in-process latch without touching the store.
func (b *CircuitBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Status reads the latch and the persisted lock. It does not latch.
func (b *CircuitBreaker) Status(ctx context.Context) (BreakerStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	until, ok, err := b.persisted(ctx)
	if err != nil {
		return BreakerStatus{}, err
	}
	st := BreakerStatus{Open: b.open}
	if ok {
		st.LockedUntil = until
		st.Active = until.After(b.now())
	}
	return st, nil
}

func (b *CircuitBreaker) persisted(ctx context.Context) (time.Time, bool, error) {
	raw, ok, err := b.store.Get(ctx, LockKey)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading circuit lock: %w", err)
	}
	if !ok {
		return time.Time{}, false, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// An unreadable lock is ignored rather than blocking forever.
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}
