package domain

import "time"

// IssuedToken is a caller-facing opaque access token. There is no refresh
// token; callers re-run the authorization flow.
type IssuedToken struct {
	// Token is the raw value. Stores only persist its fingerprint.
	Token     string
	ClientID  string
	Scopes    []string
	Resource  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer usable at now.
func (t IssuedToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokenResponse is what the token endpoint returns.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// Principal is the authenticated identity behind a caller-facing token.
type Principal struct {
	Token     string
	ClientID  string
	Scopes    []string
	Resource  string
	ExpiresAt time.Time
}
