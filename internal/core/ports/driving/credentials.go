package driving

import (
	"context"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// CredentialService manages the stored API credentials.
type CredentialService interface {
	// Import validates and stores credentials obtained out-of-band.
	Import(ctx context.Context, creds domain.AccessCredentials) error

	// Current loads the stored credentials.
	Current(ctx context.Context) (*domain.AccessCredentials, error)

	// Location describes where the credentials are stored.
	Location() string
}
