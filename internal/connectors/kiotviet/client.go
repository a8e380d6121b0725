package kiotviet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
	"github.com/kiotviet-integration/kvsync/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://api-man1.kiotviet.vn/api"

	// DefaultTimeout is the per-attempt request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries for transient errors.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the delay before the first retry.
	DefaultRetryDelay = 500 * time.Millisecond

	// maxErrorBody bounds how much of an error response is kept in messages.
	maxErrorBody = 256
)

// Ensure Client implements the API ports.
var (
	_ driven.InvoiceAPI = (*Client)(nil)
	_ driven.ProductAPI = (*Client)(nil)
)

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Policy    Policy
	RateLimit RateLimitConfig
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
		Policy:  DefaultPolicy(),
	}
}

// ConfigFromSettings maps application settings onto a client config.
func ConfigFromSettings(s domain.APISettings) Config {
	return Config{
		BaseURL: s.BaseURL,
		Timeout: s.Timeout.Std(),
		Policy: Policy{
			MaxRetries: s.MaxRetries,
			BaseDelay:  s.RetryDelay.Std(),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: s.RequestsPerSecond,
			BurstSize:         s.Burst,
		},
	}
}

// Request is one logical API call.
type Request struct {
	Method string
	// Path is joined onto the base URL unless it is absolute.
	Path   string
	Header http.Header
	Query  url.Values
	// Body is encoded as JSON when non-nil.
	Body any
}

// Client performs API calls with retry, backoff and throttling.
type Client struct {
	baseURL     string
	http        *http.Client
	policy      Policy
	rateLimiter *RateLimiter
	sleep       Sleeper
	logger      *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithSleeper replaces the backoff sleeper.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) {
		c.sleep = s
	}
}

// NewClient creates a client.
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http:        &http.Client{Timeout: cfg.Timeout},
		policy:      cfg.Policy,
		rateLimiter: NewRateLimiter(cfg.RateLimit),
		sleep:       ContextSleep,
		logger:      logger.Named("kiotviet"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs the request, retrying transient failures, and returns the
// decoded JSON body. An empty body yields "{}".
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	var body []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = encoded
	}

	target := c.resolveURL(req.Path, req.Query)

	for attempt := 0; ; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		status, payload, failure, cause := c.attempt(ctx, req, target, body)
		if failure == FailureNone {
			return decodeBody(req, payload, attempt+1)
		}

		// The caller's own deadline or cancellation is never retried.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, ctxErr)
		}

		decision := c.policy.Next(attempt, failure)
		if !decision.Retry {
			return nil, c.failure(req, attempt+1, status, payload, failure, cause)
		}

		c.logger.Warn("retrying request",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Int("attempt", attempt+1),
			zap.Stringer("failure", failure),
			zap.Int("status", status),
			zap.Duration("delay", decision.Delay),
		)

		if err := c.sleep(ctx, decision.Delay); err != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
		}
	}
}

// attempt performs a single HTTP exchange and classifies it.
func (c *Client) attempt(
	ctx context.Context,
	req Request,
	target string,
	body []byte,
) (int, []byte, Failure, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return 0, nil, FailureClient, fmt.Errorf("build request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("request",
		zap.String("method", req.Method),
		zap.String("url", target),
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return 0, nil, FailureTimeout, err
		}
		return 0, nil, FailureTransport, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return resp.StatusCode, nil, FailureTimeout, err
		}
		return resp.StatusCode, nil, FailureTransport, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, payload, ClassifyStatus(resp.StatusCode), nil
}

// failure builds the terminal error for a call.
func (c *Client) failure(req Request, attempts, status int, payload []byte, failure Failure, cause error) error {
	apiErr := &APIError{
		StatusCode: status,
		Method:     req.Method,
		Path:       req.Path,
		Message:    snippet(payload),
		Attempts:   attempts,
		cause:      cause,
	}

	switch failure {
	case FailureUnauthorized:
		apiErr.kind = domain.ErrAuthentication
	case FailureRateLimited:
		apiErr.kind = domain.ErrRateLimited
	default:
		apiErr.kind = domain.ErrAPI
	}
	return apiErr
}

// resolveURL joins relative paths onto the base URL and appends the query.
func (c *Client) resolveURL(path string, query url.Values) string {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(path, "/")
	}
	if len(query) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + query.Encode()
}

func decodeBody(req Request, payload []byte, attempts int) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(trimmed) {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Method:     req.Method,
			Path:       req.Path,
			Message:    "invalid JSON response",
			Attempts:   attempts,
			kind:       domain.ErrAPI,
		}
	}
	return json.RawMessage(trimmed), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func snippet(payload []byte) string {
	s := strings.TrimSpace(string(payload))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
