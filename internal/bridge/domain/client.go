package domain

import (
	"slices"
	"time"
)

// Token endpoint auth methods accepted at registration.
const (
	AuthMethodNone       = "none"
	AuthMethodSecretPost = "client_secret_post"
)

// Client is a dynamically registered OAuth client (RFC 7591). The whole
// record is persisted as one JSON document.
type Client struct {
	ID                      string    `json:"client_id"`
	SecretHash              string    `json:"client_secret_hash,omitempty"`
	RedirectURIs            []string  `json:"redirect_uris"`
	Name                    string    `json:"client_name,omitempty"`
	GrantTypes              []string  `json:"grant_types"`
	ResponseTypes           []string  `json:"response_types"`
	TokenEndpointAuthMethod string    `json:"token_endpoint_auth_method"`
	Scope                   string    `json:"scope,omitempty"`
	CreatedAt               time.Time `json:"created_at"`

	// Zero means the secret never expires.
	SecretExpiresAt time.Time `json:"client_secret_expires_at,omitzero"`
}

// IsPublic reports whether the client authenticates without a secret.
func (c Client) IsPublic() bool {
	return c.TokenEndpointAuthMethod == AuthMethodNone || c.SecretHash == ""
}

// HasRedirectURI reports whether uri is one of the registered redirect URIs.
// Matching is exact string comparison.
func (c Client) HasRedirectURI(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}
