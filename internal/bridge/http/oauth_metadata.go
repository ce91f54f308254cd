package http

import (
	"net/http"

	"github.com/aboundTechOlogy/ghl-mcp/pkg/authsdk"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/httpx"
)

// supportedScopes are advertised to MCP hosts; tokens are not scope-gated.
var supportedScopes = []string{"mcp:tools", "mcp:read", "mcp:write"}

// MetadataHandler serves RFC 8414 authorization server metadata.
type MetadataHandler struct {
	BaseURL string
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Authorization Server Metadata
//	@Description	Discovery document (RFC 8414) used by MCP hosts to locate the OAuth endpoints.
//	@Tags			OAuth2
//	@Produce		json
//	@Success		200	{object}	authsdk.AuthorizationServerMetadata
//	@Router			/.well-known/oauth-authorization-server [get]
func (h *MetadataHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, authsdk.AuthorizationServerMetadata{
		Issuer:                            h.BaseURL,
		AuthorizationEndpoint:             h.BaseURL + "/oauth/authorize",
		TokenEndpoint:                     h.BaseURL + "/oauth/token",
		RegistrationEndpoint:              h.BaseURL + "/oauth/register",
		RevocationEndpoint:                h.BaseURL + "/oauth/revoke",
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code", "refresh_token"},
		CodeChallengeMethodsSupported:     []string{"S256"},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_post", "none"},
		ScopesSupported:                   supportedScopes,
		ServiceDocumentation:              h.BaseURL + "/swagger/index.html",
	})
}
