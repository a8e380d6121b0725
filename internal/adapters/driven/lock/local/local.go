// Package local provides an in-process run lock.
package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
)

// Ensure Lock implements the interface.
var _ driven.RunLock = (*Lock)(nil)

// Lock is a set of named try-locks held in process memory.
// Acquire never blocks.
type Lock struct {
	mu   sync.Mutex
	held map[string]bool
}

// New creates an empty lock set.
func New() *Lock {
	return &Lock{held: make(map[string]bool)}
}

// Acquire takes the named lock or fails with domain.ErrSyncInProgress.
func (l *Lock) Acquire(_ context.Context, key string) (driven.ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[key] {
		return nil, fmt.Errorf("lock %q is held: %w", key, domain.ErrSyncInProgress)
	}
	l.held[key] = true

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
