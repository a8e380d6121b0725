package driving

import (
	"context"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// StateService exposes persisted sync state for inspection.
type StateService interface {
	// Checkpoint returns the stored watermark, or nil if none exists.
	Checkpoint(ctx context.Context) (*domain.Checkpoint, error)

	// History returns the most recent runs, newest first.
	History(ctx context.Context, limit int) ([]domain.SyncRun, error)
}
