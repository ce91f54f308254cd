package http

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/idp"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/service"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/session"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store/drivers/sqlite"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/authsdk"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/httpx"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/jwtx"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const (
	testBaseURL     = "https://bridge.example.com"
	testStaticToken = "static-shared-secret"
	testRedirectURI = "http://127.0.0.1:8976/callback"
)

type fakeProvider struct{}

func (fakeProvider) AuthCodeURL(state string) string {
	return "https://github.example.com/login/oauth/authorize?state=" + url.QueryEscape(state)
}

func (fakeProvider) Exchange(_ context.Context, code string) (string, error) {
	return "gho_" + code, nil
}

func (fakeProvider) User(context.Context, string) (idp.GitHubUser, error) {
	return idp.GitHubUser{ID: 7, Login: "octocat"}, nil
}

type fakeUpstream struct {
	mu   sync.Mutex
	pair domain.UpstreamTokenPair
	err  error
	held bool
}

func (u *fakeUpstream) ExchangeAuthorizationCode(_ context.Context, code string) (domain.UpstreamTokenPair, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return domain.UpstreamTokenPair{}, u.err
	}
	u.pair = domain.UpstreamTokenPair{
		AccessToken:  "ghl-access-" + code,
		RefreshToken: "ghl-refresh-" + code,
		ExpiresAt:    time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	u.held = true
	return u.pair, nil
}

func (u *fakeUpstream) HasTokens() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.held
}

// seenRequest captures what reached the protected MCP handler.
type seenRequest struct {
	sessionID string
	principal httpx.Principal
}

type testServer struct {
	router   *Router
	store    *sqlite.Store
	sessions *session.Registry
	signer   *jwtx.StateSigner
	upstream *fakeUpstream

	mu   sync.Mutex
	seen []seenRequest
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "bridge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewStateSigner([]byte(strings.Repeat("k", 32)), testBaseURL, time.Minute)
	require.NoError(t, err)

	ts := &testServer{
		store:    st,
		sessions: session.NewRegistry(slogx.Discard(), 0, 0),
		signer:   signer,
		upstream: &fakeUpstream{},
	}

	r := NewRouter(testBaseURL, "test", st, slogx.Discard())
	r.ClientService = &service.ClientService{Store: st}
	r.AuthorizeService = &service.AuthorizeService{Store: st, Provider: fakeProvider{}}
	r.TokenService = &service.TokenService{Store: st}
	r.Upstream = ts.upstream
	r.Sessions = ts.sessions
	r.StateVerify = signer
	r.StaticToken = testStaticToken
	r.MCP = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var seen seenRequest
		seen.sessionID, _ = session.IDFromContext(req.Context())
		seen.principal, _ = httpx.PrincipalFromContext(req.Context())
		ts.mu.Lock()
		ts.seen = append(ts.seen, seen)
		ts.mu.Unlock()

		body, _ := io.ReadAll(req.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	r.ApplyRoutes()

	ts.router = r
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) lastSeen(t *testing.T) seenRequest {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.NotEmpty(t, ts.seen)
	return ts.seen[len(ts.seen)-1]
}

func (ts *testServer) register(t *testing.T) authsdk.RegistrationResponse {
	t.Helper()
	body := `{"redirect_uris":["` + testRedirectURI + `"],"client_name":"agent","token_endpoint_auth_method":"none"}`
	req := httptest.NewRequest(http.MethodPost, "/oauth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := ts.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp authsdk.RegistrationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func challengeFor(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// authorizationCode drives authorize and the identity provider callback and
// returns the code handed back to the client.
func (ts *testServer) authorizationCode(t *testing.T, clientID, verifier string) string {
	t.Helper()

	q := url.Values{
		"response_type":         {"code"},
		"client_id":             {clientID},
		"redirect_uri":          {testRedirectURI},
		"scope":                 {"mcp:tools"},
		"state":                 {"client-state"},
		"code_challenge":        {challengeFor(verifier)},
		"code_challenge_method": {"S256"},
	}
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/oauth/authorize?"+q.Encode(), nil))
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())

	login, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "github.example.com", login.Host)
	internalState := login.Query().Get("state")
	require.NotEmpty(t, internalState)
	require.NotEqual(t, "client-state", internalState)

	cb := url.Values{"code": {"gh-code"}, "state": {internalState}}
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/oauth/callback?"+cb.Encode(), nil))
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())

	back, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8976", back.Host)
	require.Equal(t, "client-state", back.Query().Get("state"))
	code := back.Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

func tokenRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeOAuthError(t *testing.T, rec *httptest.ResponseRecorder) authsdk.ErrorResponse {
	t.Helper()
	var resp authsdk.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func mcpRequest(method, bearer string) *http.Request {
	body := `{"jsonrpc":"2.0","id":1,"method":"` + method + `","params":{}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/.well-known/oauth-authorization-server", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var md authsdk.AuthorizationServerMetadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &md))
	require.Equal(t, testBaseURL, md.Issuer)
	require.Equal(t, testBaseURL+"/oauth/authorize", md.AuthorizationEndpoint)
	require.Equal(t, testBaseURL+"/oauth/token", md.TokenEndpoint)
	require.Equal(t, testBaseURL+"/oauth/register", md.RegistrationEndpoint)
	require.Equal(t, []string{"S256"}, md.CodeChallengeMethodsSupported)
	require.Equal(t, []string{"code"}, md.ResponseTypesSupported)
	require.ElementsMatch(t, []string{"client_secret_post", "none"}, md.TokenEndpointAuthMethodsSupported)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflightAdvertisesDiscovery(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodOptions, "/mcp", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, testBaseURL+metadataPath, rec.Header().Get(discoveryHeader))
}

func TestAuthorizationCodeFlow(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	client := ts.register(t)
	require.NotEmpty(t, client.ClientID)
	require.Empty(t, client.ClientSecret)
	require.Equal(t, "none", client.TokenEndpointAuthMethod)

	verifier := "a-sufficiently-long-code-verifier-for-pkce-checks"
	code := ts.authorizationCode(t, client.ClientID, verifier)

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {client.ClientID},
		"code_verifier": {verifier},
		"redirect_uri":  {testRedirectURI},
	}
	rec := ts.do(tokenRequest(form))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var tok authsdk.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	require.NotEmpty(t, tok.AccessToken)
	require.Equal(t, "bearer", tok.TokenType)
	require.Equal(t, 3600, tok.ExpiresIn)
	require.Equal(t, "mcp:tools", tok.Scope)

	t.Run("code is single use", func(t *testing.T) {
		rec := ts.do(tokenRequest(form))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, authsdk.ErrorCodeInvalidGrant, decodeOAuthError(t, rec).Error)
	})

	t.Run("issued token opens mcp", func(t *testing.T) {
		rec := ts.do(mcpRequest("tools/list", tok.AccessToken))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		seen := ts.lastSeen(t)
		require.Equal(t, client.ClientID, seen.principal.ClientID)
		require.False(t, seen.principal.Static)
		require.NotEmpty(t, seen.sessionID)
	})

	t.Run("revoked token is rejected", func(t *testing.T) {
		revoke := url.Values{"token": {tok.AccessToken}, "client_id": {client.ClientID}}
		req := httptest.NewRequest(http.MethodPost, "/oauth/revoke", strings.NewReader(revoke.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := ts.do(req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = ts.do(mcpRequest("tools/list", tok.AccessToken))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTokenErrors(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	client := ts.register(t)

	t.Run("wrong verifier", func(t *testing.T) {
		code := ts.authorizationCode(t, client.ClientID, "the-right-verifier-value-that-was-hashed")
		rec := ts.do(tokenRequest(url.Values{
			"grant_type":    {"authorization_code"},
			"code":          {code},
			"client_id":     {client.ClientID},
			"code_verifier": {"not-the-verifier"},
		}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, authsdk.ErrorCodeInvalidGrant, decodeOAuthError(t, rec).Error)
	})

	t.Run("refresh grant unsupported", func(t *testing.T) {
		rec := ts.do(tokenRequest(url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {"anything"},
			"client_id":     {client.ClientID},
		}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, authsdk.ErrorCodeUnsupportedGrantType, decodeOAuthError(t, rec).Error)
	})

	t.Run("unknown client", func(t *testing.T) {
		rec := ts.do(tokenRequest(url.Values{
			"grant_type": {"authorization_code"},
			"code":       {"whatever"},
			"client_id":  {"nope"},
		}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, authsdk.ErrorCodeInvalidClient, decodeOAuthError(t, rec).Error)
	})
}

func TestTokenRateLimitedPerClient(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	exchange := func(clientID string) int {
		return ts.do(tokenRequest(url.Values{
			"grant_type":    {"authorization_code"},
			"code":          {"no-such-code"},
			"client_id":     {clientID},
			"code_verifier": {"verifier"},
		})).Code
	}

	for i := 0; i < httpx.StrictLimit.Burst; i++ {
		require.NotEqual(t, http.StatusTooManyRequests, exchange("client-a"), "request %d", i)
	}
	require.Equal(t, http.StatusTooManyRequests, exchange("client-a"))
	require.NotEqual(t, http.StatusTooManyRequests, exchange("client-b"))
}

func TestAuthorizeErrors(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	client := ts.register(t)

	t.Run("missing client_id", func(t *testing.T) {
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/oauth/authorize?response_type=code", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, authsdk.ErrorCodeInvalidRequest, decodeOAuthError(t, rec).Error)
	})

	t.Run("unknown client", func(t *testing.T) {
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/oauth/authorize?response_type=code&client_id=ghost", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, authsdk.ErrorCodeInvalidClient, decodeOAuthError(t, rec).Error)
	})

	t.Run("unregistered redirect_uri", func(t *testing.T) {
		q := url.Values{"response_type": {"code"}, "client_id": {client.ClientID}, "redirect_uri": {"https://evil.example.com/cb"}}
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/oauth/authorize?"+q.Encode(), nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing challenge redirects with invalid_request", func(t *testing.T) {
		q := url.Values{"response_type": {"code"}, "client_id": {client.ClientID}, "state": {"s1"}}
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/oauth/authorize?"+q.Encode(), nil))
		require.Equal(t, http.StatusFound, rec.Code)

		back, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, authsdk.ErrorCodeInvalidRequest, back.Query().Get("error"))
		require.Equal(t, "s1", back.Query().Get("state"))
	})

	t.Run("unsupported response_type", func(t *testing.T) {
		q := url.Values{"response_type": {"token"}, "client_id": {client.ClientID}}
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/oauth/authorize?"+q.Encode(), nil))
		require.Equal(t, http.StatusFound, rec.Code)

		back, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, authsdk.ErrorCodeUnsupportedResponseType, back.Query().Get("error"))
	})

	t.Run("callback with unknown state", func(t *testing.T) {
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/oauth/callback?code=x&state=never-issued", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	})

	t.Run("callback missing parameters", func(t *testing.T) {
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/oauth/callback?code=x", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRegisterRejectsBadMetadata(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	cases := map[string]struct {
		body string
		code string
	}{
		"not json":        {body: "nope", code: authsdk.ErrorCodeInvalidClientMetadata},
		"no redirect":     {body: `{"client_name":"x"}`, code: authsdk.ErrorCodeInvalidRedirectURI},
		"plain http host": {body: `{"redirect_uris":["http://agent.example.com/cb"]}`, code: authsdk.ErrorCodeInvalidRedirectURI},
		"bad auth method": {body: `{"redirect_uris":["https://agent.example.com/cb"],"token_endpoint_auth_method":"private_key_jwt"}`, code: authsdk.ErrorCodeInvalidClientMetadata},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/oauth/register", strings.NewReader(tc.body))
			rec := ts.do(req)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			require.Equal(t, tc.code, decodeOAuthError(t, rec).Error)
		})
	}
}

func TestMCPAuthentication(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	t.Run("initialize needs no credentials", func(t *testing.T) {
		rec := ts.do(mcpRequest("initialize", ""))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"method":"initialize"`)

		seen := ts.lastSeen(t)
		require.Empty(t, seen.sessionID)
	})

	t.Run("missing bearer", func(t *testing.T) {
		rec := ts.do(mcpRequest("tools/list", ""))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, string(unauthorizedBody), rec.Body.String())
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
	})

	t.Run("unknown bearer", func(t *testing.T) {
		rec := ts.do(mcpRequest("tools/call", "not-a-token"))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, string(unauthorizedBody), rec.Body.String())
	})

	t.Run("static token resolves a stable session", func(t *testing.T) {
		rec := ts.do(mcpRequest("tools/list", testStaticToken))
		require.Equal(t, http.StatusOK, rec.Code)
		first := ts.lastSeen(t)
		require.True(t, first.principal.Static)
		require.NotEmpty(t, first.sessionID)

		rec = ts.do(mcpRequest("tools/call", testStaticToken))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, first.sessionID, ts.lastSeen(t).sessionID)

		_, ok := ts.sessions.Get(first.sessionID)
		require.True(t, ok)
	})

	t.Run("body reaches the handler intact", func(t *testing.T) {
		rec := ts.do(mcpRequest("tools/list", testStaticToken))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"method":"tools/list"`)
	})
}

func TestMCPRateLimitedPerClient(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	for i := 0; i < httpx.ModerateLimit.Burst; i++ {
		rec := ts.do(mcpRequest("tools/list", testStaticToken))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := ts.do(mcpRequest("tools/list", testStaticToken))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	t.Run("oauth client has its own bucket", func(t *testing.T) {
		client := ts.register(t)
		verifier := "a-sufficiently-long-code-verifier-for-rate-limits"
		code := ts.authorizationCode(t, client.ClientID, verifier)

		rec := ts.do(tokenRequest(url.Values{
			"grant_type":    {"authorization_code"},
			"code":          {code},
			"client_id":     {client.ClientID},
			"code_verifier": {verifier},
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var tok authsdk.TokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))

		rec = ts.do(mcpRequest("tools/list", tok.AccessToken))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("rejected credentials never reach the limiter", func(t *testing.T) {
		rec := ts.do(mcpRequest("tools/list", "not-a-token"))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestMCPContextFunc(t *testing.T) {
	t.Parallel()

	logger := slogx.Discard().With("session_id", "sess_abc")
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	ctx := slogx.WithContext(req.Context(), logger)
	ctx = session.WithID(ctx, "sess_abc")
	ctx = httpx.ContextWithPrincipal(ctx, httpx.Principal{Credential: "tok", Static: true})
	req = req.WithContext(ctx)

	out := MCPContextFunc(context.Background(), req)
	id, ok := session.IDFromContext(out)
	require.True(t, ok)
	require.Equal(t, "sess_abc", id)

	p, ok := httpx.PrincipalFromContext(out)
	require.True(t, ok)
	require.True(t, p.Static)
	require.Same(t, logger, slogx.FromContext(out))

	_, ok = session.IDFromContext(MCPContextFunc(context.Background(), httptest.NewRequest(http.MethodPost, "/mcp", nil)))
	require.False(t, ok)
}

func TestRPCMethod(t *testing.T) {
	t.Parallel()

	require.Equal(t, "initialize", rpcMethod([]byte(` {"jsonrpc":"2.0","method":"initialize","id":1}`)))
	require.Equal(t, "", rpcMethod([]byte(`[{"method":"initialize"}]`)))
	require.Equal(t, "", rpcMethod([]byte(`{not json`)))
	require.Equal(t, "", rpcMethod(nil))
}

func TestUpstreamCallback(t *testing.T) {
	t.Parallel()

	t.Run("missing code", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/ghl/callback", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"error":"Missing authorization code"}`, rec.Body.String())
	})

	t.Run("exchange failure", func(t *testing.T) {
		ts := newTestServer(t)
		ts.upstream.err = errors.New("upstream said no")
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/ghl/callback?code=abc", nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.JSONEq(t, `{"error":"upstream said no"}`, rec.Body.String())
	})

	t.Run("without state loads the shared store only", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/ghl/callback?code=abc", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp authsdk.UpstreamCallbackResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.True(t, resp.Success)
		require.Equal(t, "GHL authentication successful", resp.Message)
		require.Equal(t, "2030-01-02T03:04:05Z", resp.ExpiresAt)
		require.Empty(t, resp.SessionID)
		require.True(t, ts.upstream.HasTokens())
	})

	t.Run("signed state binds the session", func(t *testing.T) {
		ts := newTestServer(t)
		sess := ts.sessions.Resolve(testStaticToken)
		state, err := ts.signer.Sign(sess.ID)
		require.NoError(t, err)

		q := url.Values{"code": {"abc"}, "state": {state}}
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/ghl/callback?"+q.Encode(), nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp authsdk.UpstreamCallbackResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, sess.ID, resp.SessionID)

		bound, ok := ts.sessions.Get(sess.ID)
		require.True(t, ok)
		require.NotNil(t, bound.UpstreamTokens)
		require.Equal(t, "ghl-access-abc", bound.UpstreamTokens.AccessToken)
	})

	t.Run("tampered state still succeeds without binding", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/ghl/callback?code=abc&state=forged", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp authsdk.UpstreamCallbackResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.True(t, resp.Success)
		require.Empty(t, resp.SessionID)
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ts.sessions.Resolve("one")
	ts.sessions.Resolve("two")

	t.Run("health", func(t *testing.T) {
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp authsdk.ServerHealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "ok", resp.Status)
		require.Equal(t, serverName, resp.Server)
		require.Equal(t, "test", resp.Version)
		require.Equal(t, "enabled", resp.OAuth)
		require.Equal(t, 2, resp.Sessions)
		_, err := time.Parse(time.RFC3339Nano, resp.Timestamp)
		require.NoError(t, err)
	})

	t.Run("livez", func(t *testing.T) {
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/livez", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp authsdk.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "ok", resp.Status)
		require.NotEmpty(t, resp.Uptime)
	})

	t.Run("readyz", func(t *testing.T) {
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp authsdk.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Checks)
		require.Equal(t, "ok", resp.Checks.Database)
		require.Equal(t, "unauthenticated", resp.Checks.Upstream)
	})
}

func TestReadyzReportsClosedStore(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	require.NoError(t, ts.store.Close())

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp authsdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "degraded", resp.Status)
	require.Contains(t, resp.Checks.Database, "error")
}

func TestOAuthDisabled(t *testing.T) {
	t.Parallel()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "bridge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	r := NewRouter(testBaseURL, "test", st, slogx.Discard())
	r.StaticToken = testStaticToken
	r.MCP = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.ApplyRoutes()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.well-known/oauth-authorization-server", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, mcpRequest("tools/list", testStaticToken))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var resp authsdk.ServerHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "disabled", resp.OAuth)
}
