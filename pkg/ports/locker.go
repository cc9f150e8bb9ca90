package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// Locker defines the interface for distributed concurrency control.
// The backing store is only safe for a single workflow execution at a time,
// so callers targeting a shared store coordinate through a Locker.
type Locker interface {
	// Lock attempts to acquire a distributed lock for the given key (e.g.
	// the target store's root). It blocks until the lock is acquired or the
	// context is canceled. Returns an UnlockFunc that MUST be called to
	// release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
