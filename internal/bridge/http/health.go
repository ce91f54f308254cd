package http

import (
	"net/http"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/authsdk"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/httpx"
)

// HealthHandler godoc
//
//	@Summary		Server health
//	@Description	Legacy health document consumed by MCP deployment tooling.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.ServerHealthResponse
//	@Router			/health [get]
func HealthHandler(version string, oauthEnabled bool, sessions Sessions) http.HandlerFunc {
	oauth := "disabled"
	if oauthEnabled {
		oauth = "enabled"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := authsdk.ServerHealthResponse{
			Status:    "ok",
			Server:    serverName,
			Version:   version,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			OAuth:     oauth,
		}
		if sessions != nil {
			resp.Sessions = sessions.Len()
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}

// LivezHandler godoc
//
//	@Summary		Liveness Check Endpoint
//	@Description	Liveness probe returning uptime and version. Always 200 while the process runs.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get]
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe. Fails when the authorization record store is unreachable.
//	@Description	The upstream check is informational only.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get]
func ReadyzHandler(startTime time.Time, version string, st store.Store, upstream UpstreamTokens) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{
			Database: "ok",
			Upstream: "unauthenticated",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if upstream != nil && upstream.HasTokens() {
			checks.Upstream = "authenticated"
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
