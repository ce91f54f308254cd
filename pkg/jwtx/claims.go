package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultStateTTL bounds how long a user has to finish the upstream consent
// screen before the state stops verifying.
const DefaultStateTTL = 10 * time.Minute

// StateClaims carry the bridge session that started an upstream
// authorization round-trip.
type StateClaims struct {
	jwt.RegisteredClaims

	// Session ID the upstream tokens should be bound to on callback.
	SID string `json:"sid"`
}

// NewStateClaims builds minimally-correct claims.
func NewStateClaims(issuer, sessionID string, ttl time.Duration, now time.Time) StateClaims {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return StateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		SID: sessionID,
	}
}
