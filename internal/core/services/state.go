package services

import (
	"context"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driving"
)

// Ensure StateService implements the interface.
var _ driving.StateService = (*StateService)(nil)

// StateService reads the persisted checkpoint and run history.
type StateService struct {
	checkpoints driven.CheckpointStore
	history     driven.RunHistoryStore
}

// NewStateService creates a state service. The history store may be nil.
func NewStateService(checkpoints driven.CheckpointStore, history driven.RunHistoryStore) *StateService {
	return &StateService{
		checkpoints: checkpoints,
		history:     history,
	}
}

// Checkpoint returns the stored watermark, or nil if none exists.
func (s *StateService) Checkpoint(ctx context.Context) (*domain.Checkpoint, error) {
	return s.checkpoints.Load(ctx)
}

// History returns the most recent runs, newest first.
func (s *StateService) History(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if s.history == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return s.history.List(ctx, limit)
}
