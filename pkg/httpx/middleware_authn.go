package httpx

import (
	"net/http"
	"strings"
)

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
	if raw == "" {
		return "", false
	}
	return raw, true
}

// SetBearerChallenge sets an RFC 6750 WWW-Authenticate header for an invalid token.
func SetBearerChallenge(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
}

// WriteBearerError writes an RFC 6750 compliant 401 with no body.
func WriteBearerError(w http.ResponseWriter, desc string) {
	SetBearerChallenge(w, desc)
	w.WriteHeader(http.StatusUnauthorized)
}
