package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
)

// Ensure CredentialsStore implements the interface.
var _ driven.CredentialsStore = (*CredentialsStore)(nil)

// requiredCredentialFields must be present in the token file.
var requiredCredentialFields = []string{"access_token", "retailer_id", "branch_id"}

// CredentialsStore reads and writes the token file.
type CredentialsStore struct {
	path   string
	logger *zap.Logger
	now    func() time.Time
}

// NewCredentialsStore creates a store for the token file at path.
func NewCredentialsStore(path string, logger *zap.Logger) *CredentialsStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialsStore{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

// Location returns the token file path.
func (s *CredentialsStore) Location() string {
	return s.path
}

// Load reads and validates the token file.
func (s *CredentialsStore) Load(_ context.Context) (*domain.AccessCredentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("token file not found: %s: %w", s.path, domain.ErrConfiguration)
		}
		return nil, fmt.Errorf("cannot read token file %s: %v: %w", s.path, err, domain.ErrConfiguration)
	}

	creds, err := ParseCredentials(data)
	if err != nil {
		return nil, fmt.Errorf("token file %s: %w", s.path, err)
	}

	if tok := BearerToken(creds); !tok.Expiry.IsZero() && !tok.Valid() {
		s.logger.Warn("access token has expired",
			zap.String("path", s.path),
			zap.Time("expires_at", tok.Expiry),
		)
	}

	return creds, nil
}

// Save validates and writes the token file with owner-only permissions.
func (s *CredentialsStore) Save(_ context.Context, creds domain.AccessCredentials) error {
	if err := validateCredentials(&creds); err != nil {
		return err
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(s.path, data, 0600); err != nil {
		return fmt.Errorf("cannot write token file %s: %v: %w", s.path, err, domain.ErrConfiguration)
	}

	s.logger.Info("access token saved", zap.String("path", s.path))
	return nil
}

// ParseCredentials decodes and validates a token document.
// Every failure wraps domain.ErrConfiguration.
func ParseCredentials(data []byte) (*domain.AccessCredentials, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("invalid JSON: %v: %w", err, domain.ErrConfiguration)
	}

	var missing []string
	for _, key := range requiredCredentialFields {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required fields: %s: %w",
			strings.Join(missing, ", "), domain.ErrConfiguration)
	}

	var creds domain.AccessCredentials

	if err := json.Unmarshal(fields["access_token"], &creds.AccessToken); err != nil || creds.AccessToken == "" {
		return nil, fmt.Errorf("access_token must be a non-empty string: %w", domain.ErrConfiguration)
	}

	retailer, err := scalarString(fields["retailer_id"])
	if err != nil || strings.TrimSpace(retailer) == "" {
		return nil, fmt.Errorf("retailer_id must be a non-empty string or number: %w", domain.ErrConfiguration)
	}
	creds.RetailerID = retailer

	branch, err := parseBranchID(fields["branch_id"])
	if err != nil {
		return nil, err
	}
	creds.BranchID = branch

	if raw, ok := fields["expires_at"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &creds.ExpiresAt); err != nil {
			return nil, fmt.Errorf("expires_at must be a string if provided: %w", domain.ErrConfiguration)
		}
	}

	return &creds, nil
}

// BuildHeaders returns the headers every API call carries.
func BuildHeaders(creds *domain.AccessCredentials) http.Header {
	return creds.Headers()
}

// BearerToken views the credentials as an OAuth2 bearer token.
func BearerToken(creds *domain.AccessCredentials) *oauth2.Token {
	return &oauth2.Token{
		AccessToken: creds.AccessToken,
		TokenType:   "Bearer",
		Expiry:      creds.Expiry(),
	}
}

func validateCredentials(creds *domain.AccessCredentials) error {
	if creds.AccessToken == "" {
		return fmt.Errorf("access_token must be a non-empty string: %w", domain.ErrConfiguration)
	}
	if strings.TrimSpace(creds.RetailerID) == "" {
		return fmt.Errorf("retailer_id is required: %w", domain.ErrConfiguration)
	}
	if creds.BranchID <= 0 {
		return fmt.Errorf("branch_id must be positive: %w", domain.ErrConfiguration)
	}
	return nil
}

// parseBranchID accepts a positive JSON integer or a digit-only string.
func parseBranchID(raw json.RawMessage) (int64, error) {
	var id int64

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" || strings.Trim(s, "0123456789") != "" {
			return 0, fmt.Errorf("branch_id must be an integer: %w", domain.ErrConfiguration)
		}
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("branch_id must be an integer: %w", domain.ErrConfiguration)
		}
		id = parsed
	} else if err := json.Unmarshal(raw, &id); err != nil {
		return 0, fmt.Errorf("branch_id must be an integer: %w", domain.ErrConfiguration)
	}

	if id <= 0 {
		return 0, fmt.Errorf("branch_id must be positive: %w", domain.ErrConfiguration)
	}
	return id, nil
}

// scalarString renders a JSON string or number as text.
// scalarString reads a JSON string or number. null is rejected.
func scalarString(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", errors.New("null value")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
