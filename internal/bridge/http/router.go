package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/service"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/httpx"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"

	_ "github.com/aboundTechOlogy/ghl-mcp/api/bridge" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	serverName      = "ghl-mcp-server"
	metadataPath    = "/.well-known/oauth-authorization-server"
	discoveryHeader = "X-OAuth-Authorization-Server"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	baseURL      string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// OAuth endpoints are only mounted when AuthorizeService is set.
	ClientService    *service.ClientService
	AuthorizeService *service.AuthorizeService
	TokenService     *service.TokenService

	Upstream    UpstreamTokens
	Sessions    Sessions
	StateVerify StateVerifier

	// MCP is the protocol handler mounted behind the authentication
	// middleware at /mcp.
	MCP         http.Handler
	StaticToken string

	// Metrics serves /metrics when set.
	Metrics http.Handler
}

func NewRouter(baseURL, buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		baseURL:      baseURL,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(httpx.CORSConfig{
			AllowOrigin:   "*",
			AllowMethods:  "GET, POST, OPTIONS",
			AllowHeaders:  "Content-Type, Authorization",
			ExposeHeaders: discoveryHeader,
			Preflight: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set(discoveryHeader, r.baseURL+metadataPath)
			},
		}),
	}

	return r
}

func (r *Router) oauthEnabled() bool {
	return r.AuthorizeService != nil && r.TokenService != nil && r.ClientService != nil
}

func (r *Router) ApplyRoutes() {
	if r.oauthEnabled() {
		r.registerOAuth2()
	}
	r.registerUpstream()
	r.registerMCP()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			GHL MCP Bridge API
//	@version		1.0.0
//	@description	OAuth 2.1 authorization server and MCP endpoint exposing GoHighLevel operations as tools.
//	@description
//	@description				Callers obtain an opaque bearer token through the authorization code flow with PKCE
//	@description				(login is delegated to GitHub) or use the shared static token.
//
//	@contact.name				aboundTechOlogy
//	@contact.url				https://github.com/aboundTechOlogy/ghl-mcp
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:3006
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Issued access token or static token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	metadata := &MetadataHandler{BaseURL: r.baseURL}
	r.Mux.Handle("GET "+metadataPath,
		httpx.Chain(metadata,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	register := &RegisterHandler{ClientService: r.ClientService}
	r.Mux.Handle("POST /oauth/register",
		httpx.Chain(register,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Browser redirects; lenient limits.
	authorize := &AuthorizeHandler{
		ClientService:    r.ClientService,
		AuthorizeService: r.AuthorizeService,
	}
	r.Mux.Handle("GET /oauth/authorize",
		httpx.Chain(authorize,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /oauth/authorize",
		httpx.Chain(authorize,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /oauth/callback",
		httpx.Chain(&CallbackHandler{AuthorizeService: r.AuthorizeService},
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	token := &TokenHandler{
		ClientService: r.ClientService,
		TokenService:  r.TokenService,
	}
	r.Mux.Handle("POST /oauth/token",
		httpx.Chain(token,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "client_id"),
		),
	)

	revoke := &RevokeHandler{
		ClientService: r.ClientService,
		TokenService:  r.TokenService,
	}
	r.Mux.Handle("POST /oauth/revoke",
		httpx.Chain(revoke,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "client_id"),
		),
	)
}

func (r *Router) registerUpstream() {
	if r.Upstream == nil {
		return
	}
	h := &UpstreamCallbackHandler{
		Upstream: r.Upstream,
		Sessions: r.Sessions,
		State:    r.StateVerify,
	}
	r.Mux.Handle("GET /ghl/callback",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerMCP() {
	if r.MCP == nil {
		return
	}
	auth := &MCPAuthenticator{
		StaticToken: r.StaticToken,
		Sessions:    r.Sessions,
	}
	if r.oauthEnabled() {
		auth.Tokens = r.TokenService
	}
	// The limiter runs after authentication so OAuth callers get a bucket
	// per client; static-token and initialize calls fall back to the IP.
	r.Mux.Handle("POST /mcp", auth.Middleware(
		httpx.Chain(r.MCP,
			httpx.RateLimitByClient(httpx.ModerateLimit),
		),
	))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /health",
		httpx.Chain(HealthHandler(r.buildVersion, r.oauthEnabled(), r.Sessions),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Upstream),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics",
			httpx.Chain(r.Metrics,
				httpx.RateLimitByIP(httpx.PublicLimit),
			),
		)
	}
}
