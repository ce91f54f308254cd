// Package ghl is the authenticated request dispatcher for the CRM REST API.
package ghl

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

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
)

const (
	// DefaultBaseURL is the CRM API host.
	DefaultBaseURL = "https://services.leadconnectorhq.com"

	// APIVersion is sent on every request in the Version header.
	APIVersion = "2021-07-28"

	// DefaultHTTPTimeout bounds each API round-trip.
	DefaultHTTPTimeout = 30 * time.Second

	// maxErrorBody caps how much of a failed response is kept.
	maxErrorBody = 64 << 10
)

// TokenSource yields a live upstream access token.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Observer is notified after every API call with the response status, or
// zero when the request never completed.
type Observer func(method string, status int, elapsed time.Duration)

// Client wraps every outbound CRM call with the current access token.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
	observe    Observer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API host.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithObserver registers a per-call observer, used for metrics.
func WithObserver(fn Observer) ClientOption {
	return func(c *Client) {
		c.observe = fn
	}
}

// NewClient creates a dispatcher that authenticates with tokens.
func NewClient(tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Call sends method path with an optional JSON body and returns the raw
// response. path must start with "/" and may carry a query string. Non-2xx
// responses are returned as *domain.UpstreamAPIError and are not retried.
func (c *Client) Call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Version", APIVersion)

	c.logger.Debug("ghl api request", "method", method, "path", path)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(method, 0, start)
		return nil, fmt.Errorf("ghl api request failed: %w", err)
	}
	defer resp.Body.Close()
	c.record(method, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("ghl api error",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
		)
		return nil, &domain.UpstreamAPIError{StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("ghl api returned a non-JSON body for %s %s", method, path)
	}

	return json.RawMessage(raw), nil
}

func (c *Client) record(method string, status int, start time.Time) {
	if c.observe != nil {
		c.observe(method, status, time.Since(start))
	}
}
