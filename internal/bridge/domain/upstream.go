package domain

import "time"

// UpstreamTokenPair is the CRM access/refresh pair the bridge acts with.
// It is replaced wholesale, never mutated in place.
type UpstreamTokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope,omitempty"`
}

// IsZero reports whether no access token is held.
func (p UpstreamTokenPair) IsZero() bool {
	return p.AccessToken == ""
}

// NeedsRefresh reports whether the access token is within margin of expiry.
func (p UpstreamTokenPair) NeedsRefresh(now time.Time, margin time.Duration) bool {
	return !now.Before(p.ExpiresAt.Add(-margin))
}
