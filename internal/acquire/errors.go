// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"errors"
	"fmt"
	"time"
)

// Abuse-defense errors. Their messages are the wire codes surfaced to callers.
var (
	// ErrRobotDetected fails the request whose body carried a bot-challenge marker.
	ErrRobotDetected = errors.New("ROBOT_DETECTED")

	// ErrCircuitOpenAbort fails requests that were queued when the breaker tripped.
	ErrCircuitOpenAbort = errors.New("CIRCUIT_OPEN_ABORT")

	// ErrCircuitLocked rejects requests while the breaker is open or a
	// persisted lock is still active.
	ErrCircuitLocked = errors.New("CIRCUIT_LOCKED")
)

// ErrQueueClosed is returned for requests made after, or pending at, Close.
var ErrQueueClosed = errors.New("acquisition queue closed")

// LockError reports the breaker lock. It matches ErrCircuitLocked.
type LockError struct {
	// Until is zero when the lock was latched in memory with no known expiry.
	Until time.Time
}

func (e *LockError) Error() string {
	if e.Until.IsZero() {
		return ErrCircuitLocked.Error()
	}
	return fmt.Sprintf("%s until %s", ErrCircuitLocked, e.Until.Format(time.RFC3339))
}

func (e *LockError) Unwrap() error { return ErrCircuitLocked }

// IsAbuseDefense reports whether err came from the circuit breaker rather
// than the network.
func IsAbuseDefense(err error) bool {
	return errors.Is(err, ErrRobotDetected) ||
		errors.Is(err, ErrCircuitOpenAbort) ||
		errors.Is(err, ErrCircuitLocked)
}

// Reason returns the wire code for an abuse-defense error.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrRobotDetected):
		return ErrRobotDetected.Error()
	case errors.Is(err, ErrCircuitOpenAbort):
		return ErrCircuitOpenAbort.Error()
	case errors.Is(err, ErrCircuitLocked):
		return ErrCircuitLocked.Error()
	}
	return ""
}
