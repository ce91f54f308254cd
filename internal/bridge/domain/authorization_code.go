package domain

import "time"

// AuthorizationCode is a short-lived, single-use record. The same shape is
// used for the internal state row created at /oauth/authorize and for the
// caller-facing code minted on the GitHub callback.
type AuthorizationCode struct {
	// Code is the raw value. Stores only persist its fingerprint.
	Code                string
	ClientID            string
	RedirectURI         string
	Scopes              []string
	Resource            string
	State               string // caller's opaque state, echoed on redirect
	CodeChallenge       string
	CodeChallengeMethod string
	CreatedAt           time.Time
	ExpiresAt           time.Time
}

// Expired reports whether the code is no longer usable at now.
func (c AuthorizationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
