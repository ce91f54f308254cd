package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/service"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/authsdk"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/httpx"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"
)

// TokenHandler serves POST /oauth/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	ClientService *service.ClientService
	TokenService  *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Exchanges an authorization code for an opaque access token. PKCE verification is mandatory.
//	@Description	The refresh_token grant is advertised for host compatibility but always answers unsupported_grant_type.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(authorization_code, refresh_token)
//	@Param			code			formData	string					true	"Authorization code"
//	@Param			redirect_uri	formData	string					false	"Redirect URI used in the authorization request"
//	@Param			code_verifier	formData	string					true	"PKCE code_verifier"
//	@Param			client_id		formData	string					true	"Client identifier"
//	@Param			client_secret	formData	string					false	"Client secret (confidential clients)"
//	@Success		200				{object}	authsdk.TokenResponse	"access_token, token_type, expires_in, scope"
//	@Failure		400				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		500				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Header			200				{string}	Pragma					"no-cache"
//	@Router			/oauth/token [post]
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Ensure the right content-type
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}

	// 2. Parse the form body
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	// 3. Handle the grant type
	switch r.Form.Get("grant_type") {
	case "authorization_code":
		h.handleAuthorizationCodeGrant(w, r, r.Form)
	case "refresh_token":
		h.handleRefreshGrant(w, r, r.Form)
	default:
		authsdk.ErrUnsupportedGrantType.WriteError(w)
	}
}

func (h *TokenHandler) handleAuthorizationCodeGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	code := strings.TrimSpace(form.Get("code"))
	clientID := strings.TrimSpace(form.Get("client_id"))
	codeVerifier := strings.TrimSpace(form.Get("code_verifier"))
	redirectURI := strings.TrimSpace(form.Get("redirect_uri"))

	if code == "" || clientID == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	client, err := h.ClientService.Authenticate(ctx, clientID, form.Get("client_secret"))
	if err != nil {
		writeTokenError(w, log, err)
		return
	}

	if err := h.TokenService.VerifyPKCE(ctx, client, code, codeVerifier); err != nil {
		writeTokenError(w, log, err)
		return
	}

	resp, err := h.TokenService.ExchangeAuthorizationCode(ctx, client, code, codeVerifier, redirectURI)
	if err != nil {
		writeTokenError(w, log, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresIn:   resp.ExpiresIn,
		Scope:       resp.Scope,
	})
}

// handleRefreshGrant always fails: no refresh tokens are issued, so hosts
// that try get unsupported_grant_type whoever they are.
func (h *TokenHandler) handleRefreshGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()

	client := domain.Client{ID: strings.TrimSpace(form.Get("client_id"))}
	_, err := h.TokenService.ExchangeRefreshToken(ctx, client, form.Get("refresh_token"),
		httpx.ParseSpaceDelimitedFields(form.Get("scope")))
	writeTokenError(w, slogx.FromContext(ctx), err)
}

func writeTokenError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidClient):
		authsdk.ErrInvalidClient.WriteError(w)
	case errors.Is(err, domain.ErrInvalidGrant):
		authsdk.ErrInvalidGrant.WriteError(w)
	case errors.Is(err, domain.ErrUnsupported):
		authsdk.ErrUnsupportedGrantType.WriteError(w)
	case errors.Is(err, domain.ErrInvalidRequest):
		authsdk.ErrInvalidRequest.WriteError(w)
	default:
		log.Error("token request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}
