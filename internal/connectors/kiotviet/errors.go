package kiotviet

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

// APIError describes a failed API call.
type APIError struct {
	// StatusCode is the last HTTP status, zero when no response arrived.
	StatusCode int
	Method     string
	Path       string
	Message    string
	// Attempts is how many requests were made.
	Attempts int

	kind  error
	cause error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("kiotviet: %s %s", e.Method, e.Path)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" (after %d attempts)", e.Attempts)
	}
	return msg
}

// Unwrap exposes the domain sentinel and the underlying cause.
func (e *APIError) Unwrap() []error {
	errs := []error{e.kind}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// IsUnauthorized checks if the error indicates the token was rejected.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return errors.Is(err, domain.ErrAuthentication)
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}

// payloadError reports a response that did not match the expected shape.
func payloadError(method, path, what string, cause error) error {
	return &APIError{
		Method:  method,
		Path:    path,
		Message: "unexpected payload: " + what,
		kind:    domain.ErrAPI,
		cause:   cause,
	}
}
