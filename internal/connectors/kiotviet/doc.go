// Package kiotviet implements the resilient gateway to the KiotViet POS API.
//
// # Architecture
//
// The package implements [driven.InvoiceAPI] and [driven.ProductAPI].
// It comprises the following components:
//
//   - Client: performs requests with retry, backoff and throttling
//   - Policy: the pure retry decision for an attempt and its failure
//   - RateLimiter: proactive token-bucket throttling
//   - APIError: the typed failure returned for every unsuccessful call
//
// # Retry Rules
//
// Timeouts, transport failures, HTTP 429 and HTTP 5xx are retried up to
// MaxRetries times, sleeping BaseDelay*2^attempt between attempts.
// HTTP 401 and every other non-success status fail immediately.
// Failures unwrap to domain.ErrAuthentication, domain.ErrRateLimited or
// domain.ErrAPI so callers can branch with errors.Is.
//
// # Payloads
//
// Responses are decoded into typed records at this boundary; a payload
// that does not match the expected shape is reported as domain.ErrAPI.
package kiotviet
