package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// AuthorizeURL is the CRM marketplace consent page.
	AuthorizeURL = "https://marketplace.gohighlevel.com/oauth/chooselocation"

	// TokenURL is the CRM token endpoint for both code and refresh grants.
	TokenURL = "https://services.leadconnectorhq.com/oauth/token"

	// DefaultHTTPTimeout bounds every token endpoint round-trip.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultRefreshMargin is how long before expiry the access token is
	// treated as stale.
	DefaultRefreshMargin = 5 * time.Minute

	// DefaultRefreshTimeout bounds a single refresh, independent of the
	// caller that started it.
	DefaultRefreshTimeout = 30 * time.Second

	// fallbackLifetime applies when the token endpoint omits expires_in.
	fallbackLifetime = 24 * time.Hour

	refreshKey = "refresh"
	provider   = "ghl"
)

// DefaultScopes are requested when AuthorizationURL is called without any.
var DefaultScopes = []string{
	"contacts.readonly",
	"contacts.write",
	"conversations.readonly",
	"conversations.write",
	"opportunities.readonly",
	"opportunities.write",
	"calendars.readonly",
	"calendars.write",
}

// TokenStore holds the single upstream token pair for this process and
// refreshes it with at most one refresh in flight.
type TokenStore struct {
	oauth          *oauth2.Config
	httpClient     *http.Client
	logger         *slog.Logger
	margin         time.Duration
	refreshTimeout time.Duration
	now            func() time.Time
	onRefresh      func(error)

	mu     sync.RWMutex
	tokens *domain.UpstreamTokenPair

	refreshGroup singleflight.Group
}

// Option configures a TokenStore.
type Option func(*TokenStore)

// WithHTTPClient sets the client used for token endpoint calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(s *TokenStore) {
		s.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *TokenStore) {
		s.logger = logger
	}
}

// WithEndpoint overrides the consent and token URLs.
func WithEndpoint(authURL, tokenURL string) Option {
	return func(s *TokenStore) {
		s.oauth.Endpoint.AuthURL = authURL
		s.oauth.Endpoint.TokenURL = tokenURL
	}
}

// WithRefreshMargin sets how early before expiry a refresh is triggered.
func WithRefreshMargin(margin time.Duration) Option {
	return func(s *TokenStore) {
		s.margin = margin
	}
}

// WithRefreshTimeout bounds each refresh round-trip.
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(s *TokenStore) {
		s.refreshTimeout = timeout
	}
}

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *TokenStore) {
		s.now = now
	}
}

// WithOnRefresh registers a hook called after every refresh attempt with
// its outcome.
func WithOnRefresh(fn func(error)) Option {
	return func(s *TokenStore) {
		s.onRefresh = fn
	}
}

// NewTokenStore creates an empty store for the given CRM app credentials.
// redirectURI may be empty when the app has a single registered redirect.
func NewTokenStore(clientID, clientSecret, redirectURI string, opts ...Option) *TokenStore {
	s := &TokenStore{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   AuthorizeURL,
				TokenURL:  TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient:     &http.Client{Timeout: DefaultHTTPTimeout},
		logger:         slog.Default(),
		margin:         DefaultRefreshMargin,
		refreshTimeout: DefaultRefreshTimeout,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// AuthorizationURL builds the CRM consent URL. state is echoed back on the
// callback and is expected to be a signed session reference.
func (s *TokenStore) AuthorizationURL(state string, scopes []string) string {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	cfg := *s.oauth
	cfg.Scopes = scopes
	return cfg.AuthCodeURL(state)
}

// ExchangeAuthorizationCode trades a consent code for a token pair and
// replaces whatever pair was held before.
func (s *TokenStore) ExchangeAuthorizationCode(ctx context.Context, code string) (domain.UpstreamTokenPair, error) {
	s.logger.Info("exchanging upstream authorization code")

	ctx, cancel := context.WithTimeout(ctx, s.refreshTimeout)
	defer cancel()

	tok, err := s.oauth.Exchange(s.clientContext(ctx), code)
	if err != nil {
		err = translateError(err)
		s.logger.Error("upstream code exchange failed", "error", err)
		return domain.UpstreamTokenPair{}, err
	}

	pair := s.pairFromToken(tok, "")
	s.SetTokens(pair)

	s.logger.Info("obtained upstream access token",
		"expires_at", pair.ExpiresAt.Format(time.RFC3339),
		"scope", pair.Scope,
	)

	return pair, nil
}

// AccessToken returns a live access token, refreshing first when the held
// one is within the refresh margin of expiry.
func (s *TokenStore) AccessToken(ctx context.Context) (string, error) {
	current, ok := s.Tokens()
	if !ok {
		return "", domain.ErrNotAuthenticated
	}

	if !current.NeedsRefresh(s.now(), s.margin) {
		return current.AccessToken, nil
	}

	pair, err := s.refresh(ctx, current.AccessToken)
	if err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

// Refresh forces a refresh of the held pair. Concurrent callers share one
// token endpoint round-trip.
func (s *TokenStore) Refresh(ctx context.Context) (domain.UpstreamTokenPair, error) {
	current, _ := s.Tokens()
	return s.refresh(ctx, current.AccessToken)
}

// refresh joins or starts the single in-flight refresh. stale is the access
// token the caller saw; if another refresh already replaced it, the newer
// pair is returned without another round-trip.
func (s *TokenStore) refresh(ctx context.Context, stale string) (domain.UpstreamTokenPair, error) {
	ch := s.refreshGroup.DoChan(refreshKey, func() (any, error) {
		current, ok := s.Tokens()
		if !ok || current.RefreshToken == "" {
			return domain.UpstreamTokenPair{}, domain.ErrNotAuthenticated
		}
		if current.AccessToken != stale && !current.NeedsRefresh(s.now(), s.margin) {
			return current, nil
		}

		// The refresh outlives a caller that gives up.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()

		pair, err := s.doRefresh(rctx, current)
		if s.onRefresh != nil {
			s.onRefresh(err)
		}
		return pair, err
	})

	select {
	case <-ctx.Done():
		return domain.UpstreamTokenPair{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.UpstreamTokenPair{}, res.Err
		}
		return res.Val.(domain.UpstreamTokenPair), nil
	}
}

func (s *TokenStore) doRefresh(ctx context.Context, current domain.UpstreamTokenPair) (domain.UpstreamTokenPair, error) {
	s.logger.Info("refreshing upstream access token")

	// An empty access token makes the source go straight to the refresh grant.
	src := s.oauth.TokenSource(s.clientContext(ctx), &oauth2.Token{RefreshToken: current.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		err = translateError(err)
		s.logger.Error("upstream token refresh failed", "error", err)
		return domain.UpstreamTokenPair{}, err
	}

	pair := s.pairFromToken(tok, current.Scope)
	s.SetTokens(pair)

	s.logger.Info("refreshed upstream access token",
		"expires_at", pair.ExpiresAt.Format(time.RFC3339),
	)

	return pair, nil
}

// SetTokens replaces the held pair.
func (s *TokenStore) SetTokens(pair domain.UpstreamTokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = &pair
}

// Tokens returns a copy of the held pair and whether one is held.
func (s *TokenStore) Tokens() (domain.UpstreamTokenPair, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return domain.UpstreamTokenPair{}, false
	}
	return *s.tokens, true
}

// HasTokens reports whether a pair is held.
func (s *TokenStore) HasTokens() bool {
	_, ok := s.Tokens()
	return ok
}

// ClearTokens drops the held pair.
func (s *TokenStore) ClearTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
}

func (s *TokenStore) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func (s *TokenStore) pairFromToken(tok *oauth2.Token, previousScope string) domain.UpstreamTokenPair {
	pair := domain.UpstreamTokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		Scope:        previousScope,
	}
	if pair.ExpiresAt.IsZero() {
		pair.ExpiresAt = s.now().Add(fallbackLifetime)
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		pair.Scope = scope
	}
	return pair
}

func translateError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		authErr := &domain.UpstreamAuthError{Provider: provider, Body: string(re.Body)}
		if re.Response != nil {
			authErr.StatusCode = re.Response.StatusCode
		}
		return authErr
	}
	return fmt.Errorf("upstream token request: %w", err)
}
