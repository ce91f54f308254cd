package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/cryptox"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"
)

// TokenService issues and verifies caller-facing opaque access tokens.
type TokenService struct {
	Store    store.Store
	TokenTTL time.Duration

	// OnIssue is called once per token handed out at the token endpoint.
	OnIssue func()
}

// ChallengeForAuthorizationCode returns the PKCE challenge stored with code.
func (s *TokenService) ChallengeForAuthorizationCode(ctx context.Context, client domain.Client, code string) (string, string, error) {
	record, err := s.lookupCode(ctx, client, code)
	if err != nil {
		return "", "", err
	}
	return record.CodeChallenge, record.CodeChallengeMethod, nil
}

// VerifyPKCE checks verifier against the challenge stored with code.
func (s *TokenService) VerifyPKCE(ctx context.Context, client domain.Client, code, verifier string) error {
	challenge, method, err := s.ChallengeForAuthorizationCode(ctx, client, code)
	if err != nil {
		return err
	}
	if !verifyCodeVerifier(challenge, method, verifier) {
		return fmt.Errorf("%w: code_verifier does not match", domain.ErrInvalidGrant)
	}
	return nil
}

// ExchangeAuthorizationCode implements the authorization_code grant. The
// code is consumed whether or not the caller wins a concurrent race; only
// the winner gets a token.
func (s *TokenService) ExchangeAuthorizationCode(
	ctx context.Context,
	client domain.Client,
	code, codeVerifier, redirectURI string,
) (*domain.TokenResponse, error) {
	l := slogx.FromContext(ctx)

	record, err := s.lookupCode(ctx, client, code)
	if err != nil {
		return nil, err
	}

	redirectURI = strings.TrimSpace(redirectURI)
	if redirectURI != "" && redirectURI != record.RedirectURI {
		return nil, fmt.Errorf("%w: redirect_uri mismatch", domain.ErrInvalidGrant)
	}

	if !verifyCodeVerifier(record.CodeChallenge, record.CodeChallengeMethod, codeVerifier) {
		return nil, fmt.Errorf("%w: code_verifier does not match", domain.ErrInvalidGrant)
	}

	if err := s.Store.AuthorizationCodes().DeleteAuthorizationCode(ctx, code); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrInvalidGrant
		}
		return nil, err
	}

	raw, err := cryptox.NewToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ttl := s.tokenTTL()
	token := domain.IssuedToken{
		Token:     raw,
		ClientID:  client.ID,
		Scopes:    record.Scopes,
		Resource:  record.Resource,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.Store.IssuedTokens().SaveIssuedToken(ctx, token); err != nil {
		return nil, fmt.Errorf("save issued token: %w", err)
	}

	if s.OnIssue != nil {
		s.OnIssue()
	}
	l.Info("access token issued", "client_id", client.ID, "expires_in", int(ttl.Seconds()))

	return &domain.TokenResponse{
		AccessToken: raw,
		TokenType:   "bearer",
		ExpiresIn:   int(ttl.Seconds()),
		Scope:       strings.Join(record.Scopes, " "),
	}, nil
}

// ExchangeRefreshToken is not supported; no refresh tokens are issued.
func (s *TokenService) ExchangeRefreshToken(context.Context, domain.Client, string, []string) (*domain.TokenResponse, error) {
	return nil, domain.ErrUnsupported
}

// VerifyAccessToken resolves a presented bearer token to its principal.
func (s *TokenService) VerifyAccessToken(ctx context.Context, token string) (domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, domain.ErrInvalidToken
	}

	record, err := s.Store.IssuedTokens().GetIssuedToken(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, domain.ErrInvalidToken
		}
		return domain.Principal{}, err
	}

	return domain.Principal{
		Token:     token,
		ClientID:  record.ClientID,
		Scopes:    record.Scopes,
		Resource:  record.Resource,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

// RevokeToken deletes a token owned by client (RFC 7009). Unknown tokens and
// tokens of other clients are ignored so the endpoint never leaks validity.
func (s *TokenService) RevokeToken(ctx context.Context, client domain.Client, token string) error {
	l := slogx.FromContext(ctx)

	record, err := s.Store.IssuedTokens().GetIssuedToken(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	if record.ClientID != client.ID {
		l.Warn("revocation attempted by non-owning client", "client_id", client.ID)
		return nil
	}

	if err := s.Store.IssuedTokens().DeleteIssuedToken(ctx, token); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	l.Info("access token revoked", "client_id", client.ID)
	return nil
}

func (s *TokenService) lookupCode(ctx context.Context, client domain.Client, code string) (domain.AuthorizationCode, error) {
	code = strings.TrimSpace(code)
	if code == "" || strings.HasPrefix(code, stateKeyPrefix) {
		return domain.AuthorizationCode{}, domain.ErrInvalidGrant
	}

	record, err := s.Store.AuthorizationCodes().GetAuthorizationCode(ctx, code, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthorizationCode{}, domain.ErrInvalidGrant
		}
		return domain.AuthorizationCode{}, err
	}

	if record.ClientID != client.ID {
		slogx.FromContext(ctx).Warn("authorization code presented by another client", "client_id", client.ID)
		return domain.AuthorizationCode{}, domain.ErrInvalidGrant
	}
	return record, nil
}

func (s *TokenService) tokenTTL() time.Duration {
	if s.TokenTTL <= 0 {
		return DefaultTokenTTL
	}
	return s.TokenTTL
}

func verifyCodeVerifier(challenge, method, verifier string) bool {
	challenge = strings.TrimSpace(challenge)
	if challenge == "" {
		// No PKCE challenge stored; accept regardless of verifier.
		return true
	}

	verifier = strings.TrimSpace(verifier)
	if verifier == "" {
		return false
	}

	method = strings.TrimSpace(method)
	switch {
	case method == "" || strings.EqualFold(method, "plain"):
		return cryptox.ConstantTimeEqual(challenge, verifier)
	case strings.EqualFold(method, "S256"):
		return cryptox.ConstantTimeEqual(challenge, cryptox.S256Challenge(verifier))
	default:
		return false
	}
}
