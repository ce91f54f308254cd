package domain

import "time"

// Session is bridge-local state for one caller credential.
type Session struct {
	ID             string
	Credential     string
	CreatedAt      time.Time
	LastActivityAt time.Time

	// UpstreamTokens is set once the caller completes the CRM consent flow.
	UpstreamTokens *UpstreamTokenPair
}

// IdleSince reports how long the session has been inactive at now.
func (s Session) IdleSince(now time.Time) time.Duration {
	return now.Sub(s.LastActivityAt)
}
