package driven

import (
	"context"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// CredentialsStore persists the API access credentials.
type CredentialsStore interface {
	// Load reads and validates the credentials.
	// Returns an error wrapping domain.ErrConfiguration when the source is
	// missing, malformed, or has missing or mistyped fields.
	Load(ctx context.Context) (*domain.AccessCredentials, error)

	// Save validates and writes the credentials, replacing any existing ones.
	Save(ctx context.Context, creds domain.AccessCredentials) error

	// Location describes where the credentials live, for messages.
	Location() string
}
