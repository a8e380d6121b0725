package kiotviet

import (
	"context"
	"net/http"
	"time"
)

// Failure classifies the outcome of a single attempt.
type Failure int

// Failure classes.
const (
	FailureNone Failure = iota
	FailureTimeout
	FailureTransport
	FailureRateLimited
	FailureServer
	FailureUnauthorized
	FailureClient
)

// String returns the class name used in logs.
func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureTimeout:
		return "timeout"
	case FailureTransport:
		return "transport"
	case FailureRateLimited:
		return "rate_limited"
	case FailureServer:
		return "server"
	case FailureUnauthorized:
		return "unauthorized"
	case FailureClient:
		return "client"
	default:
		return "unknown"
	}
}

// Retryable reports whether the failure class may succeed on a later attempt.
func (f Failure) Retryable() bool {
	switch f {
	case FailureTimeout, FailureTransport, FailureRateLimited, FailureServer:
		return true
	default:
		return false
	}
}

// ClassifyStatus maps an HTTP status to a failure class.
func ClassifyStatus(status int) Failure {
	switch {
	case status >= 200 && status < 300:
		return FailureNone
	case status == http.StatusUnauthorized:
		return FailureUnauthorized
	case status == http.StatusTooManyRequests:
		return FailureRateLimited
	case status >= 500:
		return FailureServer
	default:
		return FailureClient
	}
}

// Decision is the outcome of a retry policy evaluation.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// Policy decides whether and when a failed attempt is retried.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is the delay before the first retry; it doubles after each.
	BaseDelay time.Duration
}

// DefaultPolicy returns three retries starting at half a second.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultRetryDelay}
}

// Next returns the decision for a failure on the given zero-based attempt.
func (p Policy) Next(attempt int, failure Failure) Decision {
	if !failure.Retryable() || attempt >= p.MaxRetries {
		return Decision{}
	}
	return Decision{Retry: true, Delay: p.BaseDelay << uint(attempt)}
}

// Attempts returns the maximum number of requests for one call.
func (p Policy) Attempts() int {
	return p.MaxRetries + 1
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
