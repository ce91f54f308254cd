package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/service"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/authsdk"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/httpx"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"
)

const maxRegistrationBody = 64 << 10

// RegisterHandler serves POST /oauth/register (RFC 7591 dynamic client registration).
type RegisterHandler struct {
	ClientService *service.ClientService
}

// ServeHTTP godoc
//
//	@Summary		Dynamic Client Registration
//	@Description	Registers an OAuth client (RFC 7591). Confidential clients receive a client_secret exactly once.
//	@Tags			OAuth2
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegistrationRequest		true	"Client metadata"
//	@Success		201		{object}	authsdk.RegistrationResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_redirect_uri, invalid_client_metadata"
//	@Failure		500		{object}	authsdk.ErrorResponse
//	@Router			/oauth/register [post]
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RegistrationRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRegistrationBody)).Decode(&req); err != nil {
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidClientMetadata, "request body must be a JSON object").WriteError(w)
		return
	}

	client, secret, err := h.ClientService.Register(ctx, service.RegistrationRequest{
		RedirectURIs:            req.RedirectURIs,
		ClientName:              req.ClientName,
		GrantTypes:              req.GrantTypes,
		ResponseTypes:           req.ResponseTypes,
		TokenEndpointAuthMethod: req.TokenEndpointAuthMethod,
		Scope:                   req.Scope,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRedirectURI):
			authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidRedirectURI, err.Error()).WriteError(w)
		case errors.Is(err, service.ErrInvalidClientMetadata):
			authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidClientMetadata, err.Error()).WriteError(w)
		default:
			log.Error("client registration failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegistrationResponse{
		ClientID:                client.ID,
		ClientSecret:            secret,
		ClientIDIssuedAt:        client.CreatedAt.Unix(),
		ClientSecretExpiresAt:   0,
		RedirectURIs:            client.RedirectURIs,
		ClientName:              client.Name,
		GrantTypes:              client.GrantTypes,
		ResponseTypes:           client.ResponseTypes,
		TokenEndpointAuthMethod: client.TokenEndpointAuthMethod,
		Scope:                   client.Scope,
	})
}
