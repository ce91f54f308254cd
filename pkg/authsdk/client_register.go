package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Discover fetches the RFC 8414 authorization server metadata.
func (c *SDKClient) Discover(ctx context.Context) (*AuthorizationServerMetadata, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/.well-known/oauth-authorization-server", nil, nil)
	if err != nil {
		return nil, err
	}

	var meta AuthorizationServerMetadata
	if err := decodeJSON(resp, &meta, http.StatusOK); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Register performs RFC 7591 dynamic client registration.
func (c *SDKClient) Register(ctx context.Context, req RegistrationRequest) (*RegistrationResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode registration: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/oauth/register",
		bytes.NewReader(body),
		map[string]string{"Content-Type": "application/json"},
	)
	if err != nil {
		return nil, err
	}

	var out RegistrationResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}
