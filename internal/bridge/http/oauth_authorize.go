package http

import (
	"errors"
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/service"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/authsdk"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/httpx"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"
)

// AuthorizeHandler serves /oauth/authorize. Login is delegated to the
// identity provider, so a valid request always ends in a redirect there.
type AuthorizeHandler struct {
	ClientService    *service.ClientService
	AuthorizeService *service.AuthorizeService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 authorization endpoint
//	@Description	Starts the authorization code flow. The request is parked under an internal state and the browser is
//	@Description	redirected to GitHub for login. PKCE is mandatory.
//	@Description
//	@Description	**Response:**
//	@Description	- Success: 302 redirect to the identity provider
//	@Description	- Unknown client or unregistered redirect_uri: 400 JSON
//	@Description	- Other errors: 302 redirect to redirect_uri with error and state parameters
//	@Tags			OAuth2
//	@Produce		json
//	@Param			response_type			query		string					true	"Must be 'code'"	default(code)
//	@Param			client_id				query		string					true	"OAuth2 client identifier"
//	@Param			redirect_uri			query		string					false	"Callback URI (must match a registered redirect URI)"
//	@Param			scope					query		string					false	"Space-delimited list of scopes"	example("mcp:tools")
//	@Param			state					query		string					false	"Opaque value returned unchanged on the redirect"
//	@Param			code_challenge			query		string					true	"PKCE code challenge"	example("E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM")
//	@Param			code_challenge_method	query		string					false	"PKCE method"	default(S256)	Enums(S256, plain)
//	@Param			resource				query		string					false	"Target resource (RFC 8707)"
//	@Success		302						{string}	string					"Redirect to the identity provider"
//	@Failure		400						{object}	authsdk.ErrorResponse	"invalid_request, invalid_client"
//	@Router			/oauth/authorize [get]
//	@Router			/oauth/authorize [post]
func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}
	form := r.Form

	clientID := strings.TrimSpace(form.Get("client_id"))
	if clientID == "" {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "client_id is required").WriteError(w)
		return
	}

	client, err := h.ClientService.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidClient) {
			authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidClient, "unknown client_id").WriteError(w)
			return
		}
		log.Error("client lookup failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	redirectURI := strings.TrimSpace(form.Get("redirect_uri"))
	if redirectURI == "" && len(client.RedirectURIs) == 1 {
		redirectURI = client.RedirectURIs[0]
	}
	if !client.HasRedirectURI(redirectURI) {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "unregistered redirect_uri").WriteError(w)
		return
	}

	// redirect_uri is trusted from here on; errors go back to the client.
	state := form.Get("state")

	if form.Get("response_type") != "code" {
		redirectError(w, r, redirectURI, state, authsdk.ErrUnsupportedResponseType)
		return
	}

	target, err := h.AuthorizeService.Authorize(ctx, client, service.AuthorizeParams{
		RedirectURI:         redirectURI,
		Scopes:              httpx.ParseSpaceDelimitedFields(form.Get("scope")),
		Resource:            strings.TrimSpace(form.Get("resource")),
		State:               state,
		CodeChallenge:       form.Get("code_challenge"),
		CodeChallengeMethod: form.Get("code_challenge_method"),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			redirectError(w, r, redirectURI, state,
				authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, err.Error()))
		default:
			log.Error("authorize failed", "err", err, "client_id", client.ID)
			redirectError(w, r, redirectURI, state, authsdk.ErrServerError)
		}
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// CallbackHandler serves GET /oauth/callback, the identity provider's
// return leg.
type CallbackHandler struct {
	AuthorizeService *service.AuthorizeService
}

// ServeHTTP godoc
//
//	@Summary		Identity provider callback
//	@Description	Completes the GitHub login, mints an authorization code and redirects back to the client.
//	@Tags			OAuth2
//	@Produce		html
//	@Param			code	query		string	true	"Identity provider authorization code"
//	@Param			state	query		string	true	"Internal state issued by /oauth/authorize"
//	@Success		302		{string}	string	"Redirect to the client redirect_uri with code and state"
//	@Failure		400		{string}	string	"Missing parameters or unknown state"
//	@Failure		500		{string}	string	"Login failed"
//	@Router			/oauth/callback [get]
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		log.Warn("identity provider callback missing parameters", "has_code", code != "", "has_state", state != "")
		httpx.WriteHTML(w, http.StatusBadRequest, errorPage("Missing code or state parameter"))
		return
	}

	result, err := h.AuthorizeService.HandleCallback(ctx, code, state)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			log.Warn("identity provider callback with unknown state")
			httpx.WriteHTML(w, http.StatusBadRequest, errorPage("This login link has expired or was already used. Please start again."))
			return
		}
		log.Error("identity provider callback failed", "err", err)
		httpx.WriteHTML(w, http.StatusInternalServerError, errorPage("OAuth authentication failed"))
		return
	}

	redirectURL, err := buildAuthorizeRedirect(result.RedirectURI, result.Code, result.ClientState)
	if err != nil {
		log.Error("invalid stored redirect_uri", "err", err)
		httpx.WriteHTML(w, http.StatusInternalServerError, errorPage("OAuth authentication failed"))
		return
	}

	log.Info("login complete, redirecting to client")
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func errorPage(message string) string {
	return "<!DOCTYPE html><html><head><title>Authentication error</title></head><body><h1>Authentication error</h1><p>" +
		html.EscapeString(message) + "</p></body></html>"
}

func redirectError(w http.ResponseWriter, r *http.Request, redirectURI, state string, oauthError *authsdk.OAuth2Error) {
	target := buildErrorRedirect(redirectURI, state, oauthError.Code, oauthError)
	if target == "" {
		oauthError.WriteError(w)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// buildAuthorizeRedirect constructs a redirect URL for a successful authorization.
func buildAuthorizeRedirect(baseURI, code, state string) (string, error) {
	u, err := url.Parse(baseURI)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// buildErrorRedirect constructs a redirect URL for an OAuth2 error.
// It returns an empty string if the baseURI is invalid.
func buildErrorRedirect(baseURI, state, errorCode string, oauthError *authsdk.OAuth2Error) string {
	u, err := url.Parse(baseURI)
	if err != nil {
		return ""
	}

	q := u.Query()
	q.Set("error", errorCode)
	if oauthError != nil && oauthError.Description != "" {
		q.Set("error_description", oauthError.Description)
	}
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()

	return u.String()
}
