package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/idp"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/cryptox"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"
)

const (
	// DefaultCodeTTL applies to both the internal state row and the
	// caller-facing authorization code.
	DefaultCodeTTL = 10 * time.Minute

	// DefaultTokenTTL is the lifetime of a caller-facing access token.
	DefaultTokenTTL = time.Hour

	// stateKeyPrefix keeps state rows out of the code namespace so a state
	// value can never be redeemed at the token endpoint.
	stateKeyPrefix = "state:"
)

// IdentityProvider is the external login the bridge delegates to.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
	User(ctx context.Context, accessToken string) (idp.GitHubUser, error)
}

// AuthorizeParams is a validated /oauth/authorize request.
type AuthorizeParams struct {
	RedirectURI         string
	Scopes              []string
	Resource            string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// CallbackResult tells the HTTP layer where to send the browser after the
// identity provider returns.
type CallbackResult struct {
	RedirectURI string
	Code        string
	ClientState string
}

// AuthorizeService drives the caller login through the identity provider.
//
// Authorize parks the caller's request under a random internal state and
// sends the browser to the provider. HandleCallback consumes that state,
// confirms the login with the provider and mints a caller-facing
// authorization code bound to the original request and its PKCE challenge.
type AuthorizeService struct {
	Store    store.Store
	Provider IdentityProvider
	CodeTTL  time.Duration
	TokenTTL time.Duration
}

// Authorize stores the request and returns the provider login URL.
func (s *AuthorizeService) Authorize(ctx context.Context, client domain.Client, params AuthorizeParams) (string, error) {
	l := slogx.FromContext(ctx)

	if !client.HasRedirectURI(params.RedirectURI) {
		return "", ErrInvalidRedirectURI
	}

	challenge, method, err := validatePKCE(params.CodeChallenge, params.CodeChallengeMethod)
	if err != nil {
		return "", err
	}

	state, err := cryptox.NewToken()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	record := domain.AuthorizationCode{
		Code:                stateKeyPrefix + state,
		ClientID:            client.ID,
		RedirectURI:         params.RedirectURI,
		Scopes:              params.Scopes,
		Resource:            params.Resource,
		State:               params.State,
		CodeChallenge:       challenge,
		CodeChallengeMethod: method,
		CreatedAt:           now,
		ExpiresAt:           now.Add(s.codeTTL()),
	}

	if err := s.Store.AuthorizationCodes().SaveAuthorizationCode(ctx, record); err != nil {
		return "", fmt.Errorf("save authorization request: %w", err)
	}

	l.Info("redirecting to identity provider", "client_id", client.ID)
	return s.Provider.AuthCodeURL(state), nil
}

// HandleCallback completes the provider login for state. The state is
// single-use; a replay fails with domain.ErrInvalidState.
func (s *AuthorizeService) HandleCallback(ctx context.Context, code, state string) (*CallbackResult, error) {
	l := slogx.FromContext(ctx)

	code = strings.TrimSpace(code)
	state = strings.TrimSpace(state)
	if code == "" || state == "" {
		return nil, domain.ErrInvalidRequest
	}

	now := time.Now().UTC()
	stateKey := stateKeyPrefix + state

	pending, err := s.Store.AuthorizationCodes().GetAuthorizationCode(ctx, stateKey, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrInvalidState
		}
		return nil, err
	}

	providerToken, err := s.Provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("identity provider exchange: %w", err)
	}

	if user, err := s.Provider.User(ctx, providerToken); err != nil {
		l.Warn("identity provider user lookup failed", "error", err)
	} else {
		l.Info("identity provider user authenticated", "login", user.Login, "user_id", user.ID)
	}

	authCode, err := cryptox.NewToken()
	if err != nil {
		return nil, err
	}
	preMinted, err := cryptox.NewToken()
	if err != nil {
		return nil, err
	}

	issued := pending
	issued.Code = authCode
	issued.CreatedAt = now
	issued.ExpiresAt = now.Add(s.codeTTL())

	token := domain.IssuedToken{
		Token:     preMinted,
		ClientID:  pending.ClientID,
		Scopes:    pending.Scopes,
		Resource:  pending.Resource,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL()),
	}

	// Consuming the state goes last. On stores without real transactions a
	// failed write then leaves the state redeemable, and a lost delete race
	// only strands random values nobody holds until they expire.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.AuthorizationCodes().SaveAuthorizationCode(ctx, issued); err != nil {
			return err
		}
		if err := tx.IssuedTokens().SaveIssuedToken(ctx, token); err != nil {
			return err
		}
		return tx.AuthorizationCodes().DeleteAuthorizationCode(ctx, stateKey)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrInvalidState
		}
		return nil, err
	}

	l.Info("authorization code issued", "client_id", pending.ClientID)

	return &CallbackResult{
		RedirectURI: pending.RedirectURI,
		Code:        authCode,
		ClientState: pending.State,
	}, nil
}

func (s *AuthorizeService) codeTTL() time.Duration {
	if s.CodeTTL <= 0 {
		return DefaultCodeTTL
	}
	return s.CodeTTL
}

func (s *AuthorizeService) tokenTTL() time.Duration {
	if s.TokenTTL <= 0 {
		return DefaultTokenTTL
	}
	return s.TokenTTL
}

// validatePKCE requires a challenge from every client and normalises the
// method, defaulting to S256.
func validatePKCE(challenge, method string) (string, string, error) {
	trimmedChallenge := strings.TrimSpace(challenge)
	trimmedMethod := strings.TrimSpace(method)

	if trimmedChallenge == "" {
		return "", "", fmt.Errorf("%w: code_challenge is required", domain.ErrInvalidRequest)
	}

	var normalizedMethod string
	switch {
	case strings.EqualFold(trimmedMethod, "S256"):
		normalizedMethod = "S256"
	case strings.EqualFold(trimmedMethod, "plain"):
		normalizedMethod = "plain"
	case trimmedMethod == "":
		normalizedMethod = "S256"
	default:
		return "", "", fmt.Errorf("%w: unsupported code_challenge_method", domain.ErrInvalidRequest)
	}

	return trimmedChallenge, normalizedMethod, nil
}
