// Package api is the outbound HTTP layer for the Luminary identity/API
// service. It attaches the bearer token to every request and applies the
// global authorization-failure policy: any 401 tears the whole session down,
// regardless of which endpoint produced it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	lumerrors "github.com/luminary-app/luminary/internal/errors"
	"github.com/luminary-app/luminary/internal/log"
)

// TokenSource yields the current bearer token, or "" when anonymous.
// The session store satisfies this interface.
type TokenSource interface {
	Token() string
}

// Client is the Luminary platform API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	deviceID   string
	logger     *log.Logger

	// onUnauthorized runs once per 401 response, before the error is
	// returned to the caller. It takes precedence over caller-level error
	// handling: an invalid token invalidates the session, not one request.
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithDeviceID attaches the stable device identifier to every request so
// the service can recognize trusted devices.
func WithDeviceID(id string) Option {
	return func(c *Client) { c.deviceID = id }
}

// WithUnauthorizedHandler registers the global 401 handler.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a platform API client.
func New(baseURL string, tokens TokenSource, logger *log.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Error is a non-2xx service response. The server-provided message is
// surfaced when present; callers display it, they do not retry.
type Error struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// IsUnauthorized reports whether err is a 401 service response.
func IsUnauthorized(err error) bool {
	var lumErr *lumerrors.LuminaryError
	return errors.As(err, &lumErr) && lumErr.Code == lumerrors.ErrCodeSessionExpired
}

// errorEnvelope matches the service's error body, which uses either
// {"message": ...} or {"error": ...} depending on the endpoint.
type errorEnvelope struct {
	Message string `json:"message"`
	Err     string `json:"error"`
}

// do performs one JSON request. On 401 it runs the global unauthorized
// handler before returning; other error statuses propagate untouched for
// local handling.
func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.deviceID != "" {
		req.Header.Set("X-Device-Id", c.deviceID)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("request rejected as unauthorized; invalidating session", "path", path)
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return lumerrors.NewSessionExpiredError()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// parseError turns a non-2xx response into an *Error, preferring the
// server-provided message and falling back to a generic one.
func parseError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Message != "" {
			return &Error{Status: resp.StatusCode, Message: envelope.Message}
		}
		if envelope.Err != "" {
			return &Error{Status: resp.StatusCode, Message: envelope.Err}
		}
	}

	return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("request failed with status %d", resp.StatusCode)}
}
