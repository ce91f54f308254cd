package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated means no upstream tokens are loaded.
	ErrNotAuthenticated = errors.New("not authenticated with upstream")

	// ErrInvalidState means an authorization state is unknown, expired or
	// already consumed.
	ErrInvalidState = errors.New("invalid or expired state")

	ErrInvalidGrant   = errors.New("invalid grant")
	ErrInvalidToken   = errors.New("invalid token")
	ErrUnsupported    = errors.New("unsupported operation")
	ErrInvalidClient  = errors.New("invalid client")
	ErrInvalidRequest = errors.New("invalid request")
)

// UpstreamAuthError is returned when an OAuth token endpoint (CRM or
// GitHub) rejects an exchange or refresh.
type UpstreamAuthError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamAuthError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s oauth error: %s", e.Provider, e.Body)
	}
	return fmt.Sprintf("%s oauth error: HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
}

// UpstreamAPIError is returned for any non-2xx CRM API response.
type UpstreamAPIError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamAPIError) Error() string {
	return fmt.Sprintf("GHL API error: %d - %s", e.StatusCode, e.Body)
}
