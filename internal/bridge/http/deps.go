package http

import (
	"context"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
)

// UpstreamTokens is the CRM token store as seen by the HTTP layer.
type UpstreamTokens interface {
	ExchangeAuthorizationCode(ctx context.Context, code string) (domain.UpstreamTokenPair, error)
	HasTokens() bool
}

// Sessions is the caller session registry.
type Sessions interface {
	Resolve(credential string) domain.Session
	Bind(id string, pair domain.UpstreamTokenPair) bool
	Len() int
}

// StateVerifier recovers the session id from a signed CRM consent state.
type StateVerifier interface {
	Verify(token string) (string, error)
}

// AccessTokenVerifier resolves issued bearer tokens.
type AccessTokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (domain.Principal, error)
}
