package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a sync is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrConfiguration indicates a local setup problem: a missing or
	// malformed credential file, checkpoint file or setting.
	// Runs that hit it abort before touching the remote API.
	ErrConfiguration = errors.New("configuration error")

	// Remote API Errors.

	// ErrAuthentication indicates the API rejected the bearer token (HTTP 401).
	ErrAuthentication = errors.New("authentication failed")

	// ErrRateLimited indicates the API rate limit was exceeded and retries
	// did not clear it.
	ErrRateLimited = errors.New("rate limited")

	// ErrAPI indicates any other remote failure: a non-retryable status,
	// exhausted retries, or a payload that did not decode.
	ErrAPI = errors.New("api error")
)
