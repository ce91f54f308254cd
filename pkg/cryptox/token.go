package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// TokenBytes is the entropy behind every value the bridge mints: login
// states, authorization codes, access tokens, client secrets and PKCE
// verifiers.
const TokenBytes = 32

// NewToken returns TokenBytes of randomness as unpadded base64url (43 chars).
func NewToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns the unpadded base64url SHA-256 of token. Codes
// and access tokens are stored under their fingerprint, never in the clear.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// S256Challenge derives the RFC 7636 S256 code challenge for verifier.
func S256Challenge(verifier string) string {
	return FingerprintToken(verifier)
}
