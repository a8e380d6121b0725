package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driving"
)

// Ensure CredentialsService implements the interface.
var _ driving.CredentialService = (*CredentialsService)(nil)

// CredentialsService manages the stored API token.
type CredentialsService struct {
	store driven.CredentialsStore
}

// NewCredentialsService creates a new credentials service.
func NewCredentialsService(store driven.CredentialsStore) *CredentialsService {
	return &CredentialsService{
		store: store,
	}
}

// Import validates and saves credentials obtained outside kvsync.
func (s *CredentialsService) Import(ctx context.Context, creds domain.AccessCredentials) error {
	creds.AccessToken = strings.TrimSpace(creds.AccessToken)
	creds.RetailerID = strings.TrimSpace(creds.RetailerID)
	creds.ExpiresAt = strings.TrimSpace(creds.ExpiresAt)

	if creds.AccessToken == "" {
		return fmt.Errorf("access token is required: %w", domain.ErrInvalidInput)
	}
	if creds.RetailerID == "" {
		return fmt.Errorf("retailer is required: %w", domain.ErrInvalidInput)
	}
	if creds.BranchID <= 0 {
		return fmt.Errorf("branch id must be positive: %w", domain.ErrInvalidInput)
	}
	if creds.ExpiresAt != "" && creds.Expiry().IsZero() {
		return fmt.Errorf("expires at %q is not a timestamp: %w", creds.ExpiresAt, domain.ErrInvalidInput)
	}

	return s.store.Save(ctx, creds)
}

// Current returns the stored credentials.
func (s *CredentialsService) Current(ctx context.Context) (*domain.AccessCredentials, error) {
	return s.store.Load(ctx)
}

// Location returns where credentials are stored.
func (s *CredentialsService) Location() string {
	return s.store.Location()
}
