package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/service"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/authsdk"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/httpx"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"
)

// RevokeHandler serves POST /oauth/revoke following RFC 7009. Unknown tokens
// and tokens of other clients still return 200 OK to prevent token scanning.
type RevokeHandler struct {
	ClientService *service.ClientService
	TokenService  *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Revocation Endpoint
//	@Description	Revokes a previously issued access token (RFC 7009).
//	@Description	The endpoint is idempotent and returns 200 OK even for invalid/unknown tokens.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			token			formData	string	true	"The token to revoke"
//	@Param			token_type_hint	formData	string	false	"Hint about token type"	Enums(access_token)
//	@Param			client_id		formData	string	true	"Client identifier"
//	@Param			client_secret	formData	string	false	"Client secret (confidential clients)"
//	@Success		200				"Token revoked successfully (or was already invalid)"
//	@Failure		400				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Header			200				{string}	Pragma					"no-cache"
//	@Router			/oauth/revoke [post]
func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

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

	token := r.Form.Get("token")
	if token == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	client, err := h.ClientService.Authenticate(ctx, strings.TrimSpace(r.Form.Get("client_id")), r.Form.Get("client_secret"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidClient) {
			authsdk.ErrInvalidClient.WriteError(w)
			return
		}
		log.Error("revoke client lookup failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	// 3. Revoke. Per RFC 7009 failures are not reported to the caller.
	if err := h.TokenService.RevokeToken(ctx, client, token); err != nil {
		log.Warn("revoke failed", "err", err)
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{}"))
}
