package driven

import (
	"context"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// RunHistoryStore records every job invocation.
type RunHistoryStore interface {
	// Record saves a finished run.
	Record(ctx context.Context, run *domain.SyncRun) error

	// List returns the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]domain.SyncRun, error)

	// Prune keeps only the most recent runs.
	Prune(ctx context.Context, keep int) error
}
