// Package apiclient is the shared HTTP client every store uses to reach
// the backend REST service.
package apiclient

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
)

// DefaultBaseURL is the backend origin used when none is configured.
const DefaultBaseURL = "http://127.0.0.1:8000"

// Client calls the backend with a fixed origin and JSON headers.
// It does not retry and carries no auth.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	headers http.Header
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.HTTP = h
		}
	}
}

// WithTimeout sets a request timeout. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTP = &http.Client{Transport: c.HTTP.Transport, Timeout: d}
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables request metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{},
		headers: http.Header{
			"Content-Type": []string{"application/json"},
			"Accept":       []string{"application/json"},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, p Path, out any) error {
	return c.do(ctx, http.MethodGet, p, nil, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, p Path, body, out any) error {
	return c.do(ctx, http.MethodPost, p, body, out)
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, p Path, body, out any) error {
	return c.do(ctx, http.MethodPut, p, body, out)
}

// Delete issues a DELETE. The response body is discarded.
func (c *Client) Delete(ctx context.Context, p Path) error {
	return c.do(ctx, http.MethodDelete, p, nil, nil)
}

func (c *Client) do(ctx context.Context, method string, p Path, body, out any) error {
	path := p.String()
	fail := func(status int, respBody []byte, err error) error {
		return &RequestError{Method: method, Path: path, StatusCode: status, Body: respBody, Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fail(0, nil, err)
	}
	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.metrics.observe(method, p.Route, 0, time.Since(start))
		c.logger.Debug("backend request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return fail(0, nil, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.observe(method, p.Route, resp.StatusCode, time.Since(start))
	c.logger.Debug("backend request", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))
	if err != nil {
		return fail(resp.StatusCode, nil, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(resp.StatusCode, bytes.TrimSpace(respBody), fmt.Errorf("unexpected status %s", resp.Status))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fail(resp.StatusCode, nil, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
