package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")
	ErrExpired    = errors.New("jwtx: token expired")
	ErrIssuer     = errors.New("jwtx: issuer mismatch")
	ErrMissingSID = errors.New("jwtx: missing session id")
	ErrWeakSecret = errors.New("jwtx: secret must be at least 32 bytes")
)

const minSecretBytes = 32

// StateSigner signs and verifies opaque HS256 state values. The same key
// does both, the state never leaves the bridge's own redirect loop.
type StateSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration

	// Now is overridable for tests.
	Now func() time.Time
}

// NewStateSigner returns a signer keyed by secret.
func NewStateSigner(secret []byte, issuer string, ttl time.Duration) (*StateSigner, error) {
	if len(secret) < minSecretBytes {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateSigner{
		secret: append([]byte(nil), secret...),
		issuer: issuer,
		ttl:    ttl,
		Now:    time.Now,
	}, nil
}

// Sign mints a state token bound to sessionID.
func (s *StateSigner) Sign(sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrMissingSID
	}
	claims := NewStateClaims(s.issuer, sessionID, s.ttl, s.Now())
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign state: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry of a state token and
// returns the session ID it carries.
func (s *StateSigner) Verify(token string) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.Now),
	)

	var claims StateClaims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "", ErrIssuer
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", ErrInvalidSig
	default:
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if claims.SID == "" {
		return "", ErrMissingSID
	}
	return claims.SID, nil
}
