package cli

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// mockCredentialService implements driving.CredentialService for testing.
type mockCredentialService struct {
	creds     *domain.AccessCredentials
	imported  *domain.AccessCredentials
	importErr error
	loadErr   error
}

func (m *mockCredentialService) Import(_ context.Context, creds domain.AccessCredentials) error {
	if m.importErr != nil {
		return m.importErr
	}
	m.imported = &creds
	return nil
}

func (m *mockCredentialService) Current(_ context.Context) (*domain.AccessCredentials, error) {
	return m.creds, m.loadErr
}

func (m *mockCredentialService) Location() string {
	return "data/credentials/token.json"
}

func stubTokenReader(t *testing.T, token string) {
	t.Helper()
	original := readToken
	readToken = func() string { return token }
	t.Cleanup(func() { readToken = original })
}

// ==================== Auth Import Tests ====================

func TestAuthImportCmd_Flags(t *testing.T) {
	for _, name := range []string{"token", "retailer", "branch-id", "expires-at"} {
		assert.NotNil(t, authImportCmd.Flags().Lookup(name), name)
	}
}

func TestAuthImportCmd_NotConfigured(t *testing.T) {
	withServices(t, &Services{})

	_, err := executeCommand(t, "auth", "import", "--retailer", "shop", "--branch-id", "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential service not configured")
}

func TestAuthImportCmd_WithFlags(t *testing.T) {
	svc := &mockCredentialService{}
	withServices(t, &Services{Credentials: svc})

	out, err := executeCommand(t, "auth", "import",
		"--token", "abc123", "--retailer", "shop", "--branch-id", "42", "--expires-at", "2030-01-01T00:00:00Z")

	require.NoError(t, err)
	require.NotNil(t, svc.imported)
	assert.Equal(t, domain.AccessCredentials{
		AccessToken: "abc123",
		RetailerID:  "shop",
		BranchID:    42,
		ExpiresAt:   "2030-01-01T00:00:00Z",
	}, *svc.imported)
	assert.Contains(t, out, "Credentials saved to data/credentials/token.json")
}

func TestAuthImportCmd_PromptsForToken(t *testing.T) {
	stubTokenReader(t, "prompted-token")
	svc := &mockCredentialService{}
	withServices(t, &Services{Credentials: svc})

	out, err := executeCommand(t, "auth", "import", "--retailer", "shop", "--branch-id", "7")

	require.NoError(t, err)
	assert.Contains(t, out, "Access token:")
	assert.Equal(t, "prompted-token", svc.imported.AccessToken)
}

func TestAuthImportCmd_Rejected(t *testing.T) {
	stubTokenReader(t, "")
	svc := &mockCredentialService{importErr: fmt.Errorf("access token is required: %w", domain.ErrInvalidInput)}
	withServices(t, &Services{Credentials: svc})

	_, err := executeCommand(t, "auth", "import", "--retailer", "shop", "--branch-id", "7")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ==================== Auth Status Tests ====================

func TestAuthStatusCmd_Shows(t *testing.T) {
	svc := &mockCredentialService{creds: &domain.AccessCredentials{
		AccessToken: "secret-token-wxyz",
		RetailerID:  "shop",
		BranchID:    3,
		ExpiresAt:   "2000-01-01T00:00:00Z",
	}}
	withServices(t, &Services{Credentials: svc})

	out, err := executeCommand(t, "auth", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Retailer:  shop")
	assert.Contains(t, out, "Branch ID: 3")
	assert.Contains(t, out, "********wxyz")
	assert.NotContains(t, out, "secret-token")
	assert.Contains(t, out, "(expired)")
}

func TestAuthStatusCmd_UnknownExpiry(t *testing.T) {
	svc := &mockCredentialService{creds: &domain.AccessCredentials{AccessToken: "abcdef", RetailerID: "shop", BranchID: 1}}
	withServices(t, &Services{Credentials: svc})

	out, err := executeCommand(t, "auth", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Expires:   unknown")
}

func TestAuthStatusCmd_Missing(t *testing.T) {
	svc := &mockCredentialService{loadErr: fmt.Errorf("token file not found: %w", domain.ErrConfiguration)}
	withServices(t, &Services{Credentials: svc})

	out, err := executeCommand(t, "auth", "status")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, out, "kvsync auth import")
}
