package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/recruit-portal/internal/metrics"
)

const (
	// APIKeyHeader carries the fixed service credential
	APIKeyHeader = "x-api-key"
	// RequestIDHeader correlates a round trip across client and backend logs
	RequestIDHeader = "X-Request-ID"
)

// TokenSource yields the current session token, or "" when signed out
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() string

// Token implements TokenSource
func (f TokenFunc) Token() string { return f() }

// Client is a Go SDK for the recruitment portal API.
// It is a plain pipe: no retries, failures are returned unchanged.
type Client struct {
	baseURL    string
	apiKey     string
	tokens     TokenSource
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithTokenSource sets where the session bearer token is read from
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) {
		c.tokens = src
	}
}

// WithMetrics instruments every round trip
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a new portal client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetTokenSource swaps the token source after construction. The store is
// usually built after the client, so main wires the two together with this.
func (c *Client) SetTokenSource(src TokenSource) {
	c.tokens = src
}

type handshakeKey struct{}

// WithoutSession marks ctx as part of an unauthenticated login handshake:
// the stored session token is not attached to requests made with it.
func WithoutSession(ctx context.Context) context.Context {
	return context.WithValue(ctx, handshakeKey{}, true)
}

func inHandshake(ctx context.Context) bool {
	v, _ := ctx.Value(handshakeKey{}).(bool)
	return v
}

// RequestOption adjusts a single request
type RequestOption func(*http.Request)

// WithHeader sets an extra header
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithBearer sets an explicit bearer token, overriding the session token
func WithBearer(token string) RequestOption {
	return WithHeader("Authorization", "Bearer "+token)
}

// Get performs a GET and decodes the envelope's data into out (if non-nil)
func (c *Client) Get(ctx context.Context, path string, out interface{}, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts)
}

// Post performs a POST with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, body, out, opts)
}

// Put performs a PUT with a JSON body
func (c *Client) Put(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPut, path, body, out, opts)
}

// Delete performs a DELETE
func (c *Client) Delete(ctx context.Context, path string, out interface{}, opts ...RequestOption) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, opts)
}

// envelope is the backend's response wrapper
type envelope struct {
	Data    json.RawMessage `json:"data"`
	User    json.RawMessage `json:"user"`
	Message string          `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, opts []RequestOption) error {
	raw, err := c.doRequest(ctx, method, path, body, opts)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeData(raw, out)
}

// doRequest performs an HTTP request and returns the raw body of a 2xx response
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, opts []RequestOption) ([]byte, error) {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}
	if c.tokens != nil && !inHandshake(ctx) {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, 0, time.Since(start))
		slog.Warn("backend request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.ObserveRequest(method, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    messageFrom(respBody, resp.StatusCode),
		}
		slog.Warn("backend returned error",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"request_id", requestID,
			"message", apiErr.Message,
		)
		return nil, apiErr
	}

	slog.Debug("backend request", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)
	return respBody, nil
}

// decodeData unmarshals the envelope's data (or user, for login) into out
func decodeData(raw []byte, out interface{}) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	payload := env.Data
	if isEmptyJSON(payload) {
		payload = env.User
	}
	if isEmptyJSON(payload) {
		return ErrEmptyPayload
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
