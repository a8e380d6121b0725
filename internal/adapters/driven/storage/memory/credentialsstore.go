package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
)

// Ensure CredentialsStore implements the interface.
var _ driven.CredentialsStore = (*CredentialsStore)(nil)

// CredentialsStore is an in-memory implementation of driven.CredentialsStore.
type CredentialsStore struct {
	mu    sync.RWMutex
	creds *domain.AccessCredentials
}

// NewCredentialsStore creates a store holding creds, which may be nil.
func NewCredentialsStore(creds *domain.AccessCredentials) *CredentialsStore {
	s := &CredentialsStore{}
	if creds != nil {
		c := *creds
		s.creds = &c
	}
	return s
}

// Load returns a copy of the stored credentials.
func (s *CredentialsStore) Load(_ context.Context) (*domain.AccessCredentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return nil, fmt.Errorf("no credentials stored: %w", domain.ErrConfiguration)
	}
	c := *s.creds
	return &c, nil
}

// Save validates and replaces the stored credentials.
func (s *CredentialsStore) Save(_ context.Context, creds domain.AccessCredentials) error {
	if creds.AccessToken == "" || creds.RetailerID == "" || creds.BranchID <= 0 {
		return fmt.Errorf("incomplete credentials: %w", domain.ErrConfiguration)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = &creds
	return nil
}

// Location describes the store.
func (s *CredentialsStore) Location() string {
	return ":memory:"
}
