package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type tokenServer struct {
	*httptest.Server
	refreshes atomic.Int32
	exchanges atomic.Int32
	handler   func(w http.ResponseWriter, r *http.Request, n int32)
}

func newTokenServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, n int32)) *tokenServer {
	t.Helper()

	ts := &tokenServer{handler: handler}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		var n int32
		switch r.PostForm.Get("grant_type") {
		case "refresh_token":
			n = ts.refreshes.Add(1)
		case "authorization_code":
			n = ts.exchanges.Add(1)
		}
		ts.handler(w, r, n)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeToken(w http.ResponseWriter, access, refresh string, expiresIn int) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "Bearer",
		"expires_in":    expiresIn,
		"scope":         "contacts.readonly contacts.write",
	})
}

func newTestStore(ts *tokenServer, opts ...Option) *TokenStore {
	base := []Option{
		WithEndpoint(ts.URL+"/oauth/chooselocation", ts.URL+"/oauth/token"),
		WithLogger(slogx.Discard()),
	}
	return NewTokenStore("ghl-client", "ghl-secret", "https://bridge.example.com/ghl/callback", append(base, opts...)...)
}

func TestExchangeAuthorizationCode(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		require.Equal(t, "ghl-client", r.PostForm.Get("client_id"))
		require.Equal(t, "ghl-secret", r.PostForm.Get("client_secret"))
		require.Equal(t, "consent-code", r.PostForm.Get("code"))
		require.Equal(t, "https://bridge.example.com/ghl/callback", r.PostForm.Get("redirect_uri"))
		writeToken(w, "access-1", "refresh-1", 3600)
	})
	store := newTestStore(ts)

	before := time.Now()
	pair, err := store.ExchangeAuthorizationCode(context.Background(), "consent-code")
	require.NoError(t, err)
	require.Equal(t, "access-1", pair.AccessToken)
	require.Equal(t, "refresh-1", pair.RefreshToken)
	require.Equal(t, "contacts.readonly contacts.write", pair.Scope)
	require.WithinDuration(t, before.Add(time.Hour), pair.ExpiresAt, 5*time.Second)

	held, ok := store.Tokens()
	require.True(t, ok)
	require.Equal(t, pair, held)
}

func TestExchangeAuthorizationCodeRejected(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request, _ int32) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})
	store := newTestStore(ts)

	_, err := store.ExchangeAuthorizationCode(context.Background(), "bad-code")

	var authErr *domain.UpstreamAuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "ghl", authErr.Provider)
	require.Equal(t, http.StatusBadRequest, authErr.StatusCode)
	require.Contains(t, authErr.Body, "invalid_grant")
	require.False(t, store.HasTokens())
}

func TestAccessToken(t *testing.T) {
	t.Parallel()

	t.Run("no tokens", func(t *testing.T) {
		t.Parallel()
		store := NewTokenStore("id", "secret", "", WithLogger(slogx.Discard()))
		_, err := store.AccessToken(context.Background())
		require.ErrorIs(t, err, domain.ErrNotAuthenticated)
	})

	t.Run("fresh token is returned without refresh", func(t *testing.T) {
		t.Parallel()
		ts := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request, _ int32) {
			writeToken(w, "new", "refresh-2", 3600)
		})
		store := newTestStore(ts)
		store.SetTokens(domain.UpstreamTokenPair{
			AccessToken:  "current",
			RefreshToken: "refresh-1",
			ExpiresAt:    time.Now().Add(time.Hour),
		})

		token, err := store.AccessToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "current", token)
		require.Zero(t, ts.refreshes.Load())
	})

	t.Run("token near expiry is refreshed once", func(t *testing.T) {
		t.Parallel()
		ts := newTokenServer(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
			require.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))
			writeToken(w, "new", "refresh-2", 86399)
		})
		store := newTestStore(ts)
		store.SetTokens(domain.UpstreamTokenPair{
			AccessToken:  "old",
			RefreshToken: "refresh-1",
			ExpiresAt:    time.Now().Add(2 * time.Minute),
		})

		before := time.Now()
		token, err := store.AccessToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "new", token)
		require.EqualValues(t, 1, ts.refreshes.Load())

		pair, _ := store.Tokens()
		require.Equal(t, "refresh-2", pair.RefreshToken)
		require.WithinDuration(t, before.Add(86399*time.Second), pair.ExpiresAt, 5*time.Second)
	})

	t.Run("missing refresh token", func(t *testing.T) {
		t.Parallel()
		store := NewTokenStore("id", "secret", "", WithLogger(slogx.Discard()))
		store.SetTokens(domain.UpstreamTokenPair{AccessToken: "old", ExpiresAt: time.Now()})

		_, err := store.AccessToken(context.Background())
		require.ErrorIs(t, err, domain.ErrNotAuthenticated)
	})
}

func TestConcurrentAccessTokenRefreshesOnce(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	ts := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request, _ int32) {
		<-release
		writeToken(w, "new", "refresh-2", 3600)
	})
	store := newTestStore(ts)
	store.SetTokens(domain.UpstreamTokenPair{
		AccessToken:  "old",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Minute),
	})

	const callers = 25
	tokens := make([]string, callers)

	var g errgroup.Group
	for i := range callers {
		g.Go(func() error {
			token, err := store.AccessToken(context.Background())
			tokens[i] = token
			return err
		})
	}

	require.Eventually(t, func() bool { return ts.refreshes.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	close(release)

	require.NoError(t, g.Wait())
	for _, token := range tokens {
		require.Equal(t, "new", token)
	}
	require.EqualValues(t, 1, ts.refreshes.Load())
}

func TestFailedRefreshAllowsRetry(t *testing.T) {
	t.Parallel()

	ts := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request, n int32) {
		if n == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		writeToken(w, "new", "refresh-2", 3600)
	})

	var outcomes []error
	store := newTestStore(ts, WithOnRefresh(func(err error) { outcomes = append(outcomes, err) }))
	store.SetTokens(domain.UpstreamTokenPair{
		AccessToken:  "old",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now(),
	})

	_, err := store.AccessToken(context.Background())
	var authErr *domain.UpstreamAuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, http.StatusUnauthorized, authErr.StatusCode)

	token, err := store.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "new", token)
	require.EqualValues(t, 2, ts.refreshes.Load())

	require.Len(t, outcomes, 2)
	require.Error(t, outcomes[0])
	require.NoError(t, outcomes[1])
}

func TestRefreshSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	ts := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request, _ int32) {
		<-release
		writeToken(w, "new", "refresh-2", 3600)
	})
	store := newTestStore(ts)
	store.SetTokens(domain.UpstreamTokenPair{
		AccessToken:  "old",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := store.Refresh(ctx)
		errCh <- err
	}()

	require.Eventually(t, func() bool { return ts.refreshes.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		pair, _ := store.Tokens()
		return pair.AccessToken == "new"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestAuthorizationURL(t *testing.T) {
	t.Parallel()

	store := NewTokenStore("ghl-client", "secret", "https://bridge.example.com/ghl/callback")

	t.Run("default scopes", func(t *testing.T) {
		u, err := url.Parse(store.AuthorizationURL("signed-state", nil))
		require.NoError(t, err)
		require.Equal(t, "marketplace.gohighlevel.com", u.Host)
		require.Equal(t, "/oauth/chooselocation", u.Path)

		q := u.Query()
		require.Equal(t, "code", q.Get("response_type"))
		require.Equal(t, "ghl-client", q.Get("client_id"))
		require.Equal(t, "https://bridge.example.com/ghl/callback", q.Get("redirect_uri"))
		require.Equal(t, "signed-state", q.Get("state"))
		require.Contains(t, q.Get("scope"), "contacts.readonly")
		require.Contains(t, q.Get("scope"), "calendars.write")
	})

	t.Run("explicit scopes", func(t *testing.T) {
		u, err := url.Parse(store.AuthorizationURL("", []string{"locations.readonly"}))
		require.NoError(t, err)
		require.Equal(t, "locations.readonly", u.Query().Get("scope"))
		require.False(t, u.Query().Has("state"))
	})
}

func TestClearTokens(t *testing.T) {
	t.Parallel()

	store := NewTokenStore("id", "secret", "")
	store.SetTokens(domain.UpstreamTokenPair{AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour)})
	require.True(t, store.HasTokens())

	store.ClearTokens()
	require.False(t, store.HasTokens())
}
