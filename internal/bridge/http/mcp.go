package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/session"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/cryptox"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/httpx"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"
)

// maxRPCBody bounds how much of a request body is buffered to find the
// JSON-RPC method.
const maxRPCBody = 4 << 20

// unauthorizedBody is the JSON-RPC error MCP hosts expect on a 401.
var unauthorizedBody = []byte(`{"jsonrpc":"2.0","error":{"code":-32001,"message":"Unauthorized"},"id":null}`)

// MCPAuthenticator guards /mcp. An initialize request passes without
// credentials; anything else needs an issued token or the static token.
type MCPAuthenticator struct {
	// Tokens verifies issued OAuth tokens. Nil when OAuth is disabled.
	Tokens      AccessTokenVerifier
	StaticToken string
	Sessions    Sessions
}

// Middleware wraps next with authentication and session resolution.
//
//	@Summary		MCP JSON-RPC endpoint
//	@Description	Streamable HTTP MCP endpoint. initialize is allowed without credentials.
//	@Tags			MCP
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	map[string]interface{}	"JSON-RPC response"
//	@Failure		401	{object}	map[string]interface{}	"JSON-RPC error -32001"
//	@Router			/mcp [post]
func (a *MCPAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := slogx.FromContext(ctx)

		body, err := io.ReadAll(io.LimitReader(r.Body, maxRPCBody))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		method := rpcMethod(body)
		if method == "initialize" {
			log.Debug("allowing unauthenticated initialize request")
			next.ServeHTTP(w, r)
			return
		}

		token, ok := httpx.BearerToken(r)
		if !ok {
			log.Warn("mcp authentication failed: missing bearer token", "rpc_method", method)
			writeUnauthorized(w)
			return
		}

		principal, ok := a.authenticate(r, token)
		if !ok {
			log.Warn("mcp authentication failed: invalid token", "rpc_method", method)
			writeUnauthorized(w)
			return
		}

		ctx = httpx.ContextWithPrincipal(ctx, principal)
		if principal.ClientID != "" {
			ctx = slogx.With(ctx, "client_id", principal.ClientID)
		}
		if a.Sessions != nil {
			sess := a.Sessions.Resolve(principal.Credential)
			ctx = session.WithID(ctx, sess.ID)
			ctx = slogx.With(ctx, "session_id", sess.ID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *MCPAuthenticator) authenticate(r *http.Request, token string) (httpx.Principal, bool) {
	if a.Tokens != nil {
		p, err := a.Tokens.VerifyAccessToken(r.Context(), token)
		if err == nil {
			return httpx.Principal{Credential: token, ClientID: p.ClientID, Scopes: p.Scopes}, true
		}
		slogx.FromContext(r.Context()).Debug("oauth token verification failed, trying static token")
	}

	if a.StaticToken != "" && cryptox.ConstantTimeEqual(token, a.StaticToken) {
		return httpx.Principal{Credential: token, Static: true}, true
	}
	return httpx.Principal{}, false
}

// rpcMethod returns the method of a single JSON-RPC request, or "" for
// batches and unparseable bodies.
func rpcMethod(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}
	var msg struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return ""
	}
	return strings.TrimSpace(msg.Method)
}

func writeUnauthorized(w http.ResponseWriter) {
	httpx.SetBearerChallenge(w, "missing or invalid bearer token")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(unauthorizedBody)
}

// MCPContextFunc carries the session, principal and request logger resolved
// by the authenticator into the context the MCP server hands to tool handlers.
func MCPContextFunc(ctx context.Context, r *http.Request) context.Context {
	ctx = slogx.WithContext(ctx, slogx.FromContext(r.Context()))
	if id, ok := session.IDFromContext(r.Context()); ok {
		ctx = session.WithID(ctx, id)
	}
	if p, ok := httpx.PrincipalFromContext(r.Context()); ok {
		ctx = httpx.ContextWithPrincipal(ctx, p)
	}
	return ctx
}
