package http

import (
	"net/http"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/pkg/authsdk"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/httpx"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"
)

// UpstreamCallbackHandler serves GET /ghl/callback, the CRM consent return
// leg. The exchanged pair is loaded into the token store and, when state
// names a live session, bound to that session too.
type UpstreamCallbackHandler struct {
	Upstream UpstreamTokens
	Sessions Sessions
	State    StateVerifier
}

// ServeHTTP godoc
//
//	@Summary		GoHighLevel OAuth callback
//	@Description	Exchanges the GoHighLevel authorization code for API tokens.
//	@Tags			Upstream
//	@Produce		json
//	@Param			code	query		string	true	"GoHighLevel authorization code"
//	@Param			state	query		string	false	"Signed session reference from the authUrl"
//	@Success		200		{object}	authsdk.UpstreamCallbackResponse
//	@Failure		400		{object}	map[string]string	"Missing authorization code"
//	@Failure		500		{object}	map[string]string	"Exchange failed"
//	@Router			/ghl/callback [get]
func (h *UpstreamCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	code := r.URL.Query().Get("code")
	if code == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing authorization code"})
		return
	}

	pair, err := h.Upstream.ExchangeAuthorizationCode(ctx, code)
	if err != nil {
		log.Error("ghl oauth callback failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	resp := authsdk.UpstreamCallbackResponse{
		Success:   true,
		Message:   "GHL authentication successful",
		ExpiresAt: pair.ExpiresAt.UTC().Format(time.RFC3339),
	}

	if state := r.URL.Query().Get("state"); state != "" && h.State != nil && h.Sessions != nil {
		sessionID, err := h.State.Verify(state)
		switch {
		case err != nil:
			log.Warn("ghl callback state rejected", "err", err)
		case h.Sessions.Bind(sessionID, pair):
			resp.SessionID = sessionID
			log.Info("ghl tokens bound to session", "session_id", sessionID)
		default:
			log.Info("ghl callback session no longer exists", "session_id", sessionID)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
