package domain

import (
	"net/http"
	"strings"
	"time"
)

// AccessCredentials is the token and tenant routing information needed for
// every API call. It is loaded once per run and never mutated.
type AccessCredentials struct {
	// AccessToken is the bearer token.
	AccessToken string `json:"access_token"`
	// RetailerID is the tenant (shop) identifier, sent as the Retailer header.
	RetailerID string `json:"retailer_id"`
	// BranchID selects the store branch whose invoices are read.
	BranchID int64 `json:"branch_id"`
	// ExpiresAt is the RFC 3339 expiry of the token, empty when unknown.
	ExpiresAt string `json:"expires_at,omitempty"`
}

// Headers returns the request headers every API call carries: the bearer
// token, the tenant routing header and the JSON content type.
func (c *AccessCredentials) Headers() http.Header {
	h := make(http.Header, 3)
	h.Set("Authorization", "Bearer "+c.AccessToken)
	h.Set("Retailer", c.RetailerID)
	h.Set("Content-Type", "application/json")
	return h
}

// Expiry parses ExpiresAt. The zero time is returned when the value is
// empty or not a recognised timestamp.
func (c *AccessCredentials) Expiry() time.Time {
	if c == nil || strings.TrimSpace(c.ExpiresAt) == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, c.ExpiresAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// IsExpired returns true if the token carries an expiry that has passed.
func (c *AccessCredentials) IsExpired(now time.Time) bool {
	exp := c.Expiry()
	if exp.IsZero() {
		return false
	}
	return now.After(exp)
}

// MaskedToken returns the token with everything but the last four
// characters hidden, for display.
func (c *AccessCredentials) MaskedToken() string {
	if c == nil {
		return ""
	}
	if len(c.AccessToken) <= 4 {
		return strings.Repeat("*", len(c.AccessToken))
	}
	return strings.Repeat("*", 8) + c.AccessToken[len(c.AccessToken)-4:]
}
