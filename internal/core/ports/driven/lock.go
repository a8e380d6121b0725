package driven

import "context"

// ReleaseFunc releases a held lock.
type ReleaseFunc func(ctx context.Context) error

// RunLock guarantees at most one sync runs at a time.
type RunLock interface {
	// Acquire takes the lock without blocking.
	// Returns an error wrapping domain.ErrSyncInProgress if it is held.
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}
