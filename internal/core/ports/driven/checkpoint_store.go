package driven

import (
	"context"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// CheckpointStore persists the single purchase-date watermark.
// It performs no comparison: callers decide whether a value may be saved.
type CheckpointStore interface {
	// Load returns the stored checkpoint.
	// Returns nil and no error if no checkpoint has been written yet.
	Load(ctx context.Context) (*domain.Checkpoint, error)

	// Save atomically replaces the stored watermark.
	// A reader never observes a partially written value.
	Save(ctx context.Context, watermark string) error

	// Location describes where the checkpoint lives, for messages.
	Location() string
}
