package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore is an in-memory implementation of driven.CheckpointStore.
type CheckpointStore struct {
	mu        sync.RWMutex
	watermark string
	saves     int
}

// NewCheckpointStore creates a store, optionally seeded with a watermark.
func NewCheckpointStore(watermark string) *CheckpointStore {
	return &CheckpointStore{watermark: watermark}
}

// Load returns the stored checkpoint, or nil if none was saved.
func (s *CheckpointStore) Load(_ context.Context) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.watermark == "" {
		return nil, nil
	}
	return &domain.Checkpoint{LastPurchaseDate: s.watermark}, nil
}

// Save replaces the watermark.
func (s *CheckpointStore) Save(_ context.Context, watermark string) error {
	if watermark == "" {
		return fmt.Errorf("purchase date must be non-empty: %w", domain.ErrConfiguration)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermark = watermark
	s.saves++
	return nil
}

// Location describes the store.
func (s *CheckpointStore) Location() string {
	return ":memory:"
}

// Saves returns how many times Save succeeded.
func (s *CheckpointStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
