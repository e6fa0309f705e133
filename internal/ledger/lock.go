package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrLockTimeout is returned when the store-wide lock could not be acquired
// before the deadline. The underlying write is not attempted.
var ErrLockTimeout = errors.New("timed out waiting for ledger lock")

// DefaultLockTimeout bounds how long a writer blocks on the lock.
const DefaultLockTimeout = 30 * time.Second

// Lock is the single named lock serializing ledger writers. Readers run
// without it and may observe a transient pre-reconciliation state.
type Lock struct {
	sem chan struct{}
}

// NewLock creates an unheld lock.
func NewLock() *Lock {
	return &Lock{sem: make(chan struct{}, 1)}
}

// Acquire blocks until the lock is held, the timeout elapses, or ctx is
// cancelled. A zero timeout uses DefaultLockTimeout.
func (l *Lock) Acquire(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the lock. Must be called exactly once per successful Acquire,
// on every exit path.
func (l *Lock) Release() {
	select {
	case <-l.sem:
	default:
		// Releasing an unheld lock is a programming error; make it loud in
		// development rather than deadlocking later.
		panic("ledger: release of unheld lock")
	}
}
