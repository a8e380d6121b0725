package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
)

// Ensure RunHistoryStore implements the interface.
var _ driven.RunHistoryStore = (*RunHistoryStore)(nil)

// RunHistoryStore is an in-memory implementation of driven.RunHistoryStore.
type RunHistoryStore struct {
	mu   sync.RWMutex
	runs []domain.SyncRun
}

// NewRunHistoryStore creates an empty history.
func NewRunHistoryStore() *RunHistoryStore {
	return &RunHistoryStore{}
}

// Record saves a run, replacing an earlier record with the same ID.
func (s *RunHistoryStore) Record(_ context.Context, run *domain.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *run
	stored.Uploads = slices.Clone(run.Uploads)
	for i := range s.runs {
		if s.runs[i].ID == run.ID {
			s.runs[i] = stored
			return nil
		}
	}
	s.runs = append(s.runs, stored)
	return nil
}

// List returns up to limit runs, newest first.
func (s *RunHistoryStore) List(_ context.Context, limit int) ([]domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := s.newestFirst()
	if limit < len(sorted) {
		sorted = sorted[:max(limit, 0)]
	}
	return sorted, nil
}

// Prune keeps only the keep most recent runs.
func (s *RunHistoryStore) Prune(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := s.newestFirst()
	if keep < len(sorted) {
		sorted = sorted[:max(keep, 0)]
	}
	s.runs = sorted
	return nil
}

// newestFirst returns a copy sorted by start time descending, most recently
// recorded first on ties (caller must hold lock).
func (s *RunHistoryStore) newestFirst() []domain.SyncRun {
	sorted := make([]domain.SyncRun, len(s.runs))
	for i := range s.runs {
		sorted[len(s.runs)-1-i] = s.runs[i]
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.After(sorted[j].StartedAt)
	})
	return sorted
}
