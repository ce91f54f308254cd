package idp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func newFakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Accept"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "gh-client", body["client_id"])
		require.Equal(t, "gh-secret", body["client_secret"])
		require.Equal(t, "https://bridge.example.com/oauth/callback", body["redirect_uri"])

		w.Header().Set("Content-Type", "application/json")
		if body["code"] != "good-code" {
			_, _ = w.Write([]byte(`{"error":"bad_verification_code","error_description":"The code passed is incorrect or expired."}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"gho_123","token_type":"bearer","scope":"read:user,user:email"}`))
	})
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":42,"login":"octocat"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestGitHub(srv *httptest.Server) *GitHub {
	return NewGitHub("gh-client", "gh-secret", "https://bridge.example.com/oauth/callback",
		WithEndpoints(srv.URL+"/login/oauth/authorize", srv.URL+"/login/oauth/access_token", srv.URL),
		WithLogger(slogx.Discard()),
	)
}

func TestAuthCodeURL(t *testing.T) {
	t.Parallel()

	gh := NewGitHub("gh-client", "gh-secret", "https://bridge.example.com/oauth/callback")

	u, err := url.Parse(gh.AuthCodeURL("internal-state"))
	require.NoError(t, err)
	require.Equal(t, "github.com", u.Host)
	require.Equal(t, "/login/oauth/authorize", u.Path)

	q := u.Query()
	require.Equal(t, "gh-client", q.Get("client_id"))
	require.Equal(t, "https://bridge.example.com/oauth/callback", q.Get("redirect_uri"))
	require.Equal(t, "internal-state", q.Get("state"))
	require.Equal(t, LoginScopes, q.Get("scope"))
}

func TestExchange(t *testing.T) {
	t.Parallel()

	srv := newFakeGitHub(t)
	gh := newTestGitHub(srv)

	t.Run("success", func(t *testing.T) {
		token, err := gh.Exchange(context.Background(), "good-code")
		require.NoError(t, err)
		require.Equal(t, "gho_123", token)
	})

	t.Run("error field", func(t *testing.T) {
		_, err := gh.Exchange(context.Background(), "stale-code")
		var authErr *domain.UpstreamAuthError
		require.ErrorAs(t, err, &authErr)
		require.Equal(t, "github", authErr.Provider)
		require.Contains(t, authErr.Body, "incorrect or expired")
	})
}

func TestUser(t *testing.T) {
	t.Parallel()

	srv := newFakeGitHub(t)
	gh := newTestGitHub(srv)

	user, err := gh.User(context.Background(), "gho_123")
	require.NoError(t, err)
	require.Equal(t, int64(42), user.ID)
	require.Equal(t, "octocat", user.Login)

	_, err = gh.User(context.Background(), "wrong")
	var authErr *domain.UpstreamAuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
}
