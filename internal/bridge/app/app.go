package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/ghl"
	httpapi "github.com/aboundTechOlogy/ghl-mcp/internal/bridge/http"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/idp"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/metrics"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/service"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/session"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store/drivers/redis"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store/drivers/sqlite"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/tools"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/upstream"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/cryptox"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/jwtx"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

const serviceName = "ghl-mcp-server"

// Application encapsulates the bridge with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	metrics  *metrics.Recorder
	sessions *session.Registry
	upstream *upstream.TokenStore
	ghl      *ghl.Client
	state    *jwtx.StateSigner

	// Services; the OAuth ones stay nil when GitHub login is not configured.
	clientService       *service.ClientService
	authorizeService    *service.AuthorizeService
	tokenService        *service.TokenService
	housekeepingService *service.HousekeepingService

	mcp *server.MCPServer

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	db, err := OpenStore(context.Background(), cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	if err := app.initState(); err != nil {
		_ = db.Close()
		return nil, err
	}

	app.initUpstream()
	app.initServices()
	app.initMCP()
	app.initHTTP()

	return app, nil
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: serviceName,
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// OpenStore connects the configured authorization record store and applies
// pending migrations.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	var (
		db  store.Store
		err error
	)

	switch cfg.StoreDriver {
	case StoreDriverRedis:
		db, err = redis.NewStore(ctx, redis.Config{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
	default:
		db, err = sqlite.NewStore(cfg.DatabaseFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", cfg.StoreDriver, err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply store migrations: %w", err)
	}

	logger.Info("authorization store ready", "driver", cfg.StoreDriver)
	return db, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()
	app.sessions.Start()

	app.logger.Info("bridge starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"base_url", app.cfg.BaseURL,
		"oauth", app.cfg.OAuthEnabled(),
		"tools", len(tools.Catalogue),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.stopWorkers()
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones up to the grace
// period, stops the background workers and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down bridge...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.stopWorkers()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("bridge stopped")
	return nil
}

func (app *Application) stopWorkers() {
	app.housekeepingService.Stop()
	app.sessions.Stop()
}

// initState sets up the signer for CRM consent state. Without a configured
// secret the key is random, so consent links do not survive a restart.
func (app *Application) initState() error {
	secret := []byte(app.cfg.StateSecret)
	if len(secret) == 0 {
		generated, err := cryptox.NewToken()
		if err != nil {
			return fmt.Errorf("failed to generate state secret: %w", err)
		}
		secret = []byte(generated)
		app.logger.Warn("STATE_SECRET not set, using a per-process key")
	}

	signer, err := jwtx.NewStateSigner(secret, app.cfg.BaseURL, jwtx.DefaultStateTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize state signer: %w", err)
	}
	app.state = signer
	return nil
}

// initUpstream wires the CRM token store, the API client and the collectors
// that observe them.
func (app *Application) initUpstream() {
	app.sessions = session.NewRegistry(app.logger, app.cfg.SessionTimeout, app.cfg.SessionSweepInterval)
	app.metrics = metrics.New(app.sessions.Len)

	app.upstream = upstream.NewTokenStore(
		app.cfg.GHLClientID,
		app.cfg.GHLClientSecret,
		app.cfg.GHLRedirectURI,
		upstream.WithLogger(app.logger),
		upstream.WithOnRefresh(app.metrics.UpstreamRefresh),
	)

	opts := []ghl.ClientOption{
		ghl.WithLogger(app.logger),
		ghl.WithObserver(app.metrics.UpstreamCall),
	}
	if app.cfg.GHLAPIBaseURL != "" {
		opts = append(opts, ghl.WithBaseURL(app.cfg.GHLAPIBaseURL))
	}
	app.ghl = ghl.NewClient(app.upstream, opts...)
}

// initServices initializes the OAuth services and background housekeeping.
func (app *Application) initServices() {
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	if !app.cfg.OAuthEnabled() {
		app.logger.Info("GitHub OAuth not configured, only the static token is accepted")
		return
	}

	provider := idp.NewGitHub(
		app.cfg.GitHubClientID,
		app.cfg.GitHubClientSecret,
		app.cfg.BaseURL+"/oauth/callback",
		idp.WithLogger(app.logger),
	)

	app.clientService = &service.ClientService{Store: app.db}
	app.authorizeService = &service.AuthorizeService{
		Store:    app.db,
		Provider: provider,
		CodeTTL:  service.DefaultCodeTTL,
		TokenTTL: service.DefaultTokenTTL,
	}
	app.tokenService = &service.TokenService{
		Store:    app.db,
		TokenTTL: service.DefaultTokenTTL,
		OnIssue:  app.metrics.TokenIssued,
	}
}

func (app *Application) initMCP() {
	app.mcp = server.NewMCPServer(
		serviceName,
		BuildVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	executor := &tools.Executor{
		Tokens:     app.upstream,
		Dispatcher: app.ghl,
		Sessions:   app.sessions,
		State:      app.state,
		Metrics:    app.metrics,
		Logger:     app.logger,
	}
	executor.Register(app.mcp)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.cfg.BaseURL, BuildVersion, app.db, app.logger)

	router.ClientService = app.clientService
	router.AuthorizeService = app.authorizeService
	router.TokenService = app.tokenService
	router.Upstream = app.upstream
	router.Sessions = app.sessions
	router.StateVerify = app.state
	router.StaticToken = app.cfg.AuthToken
	router.Metrics = app.metrics.Handler()
	router.MCP = server.NewStreamableHTTPServer(
		app.mcp,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(httpapi.MCPContextFunc),
	)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Migrate applies store migrations and exits.
func Migrate(ctx context.Context, cfg Config) error {
	logger := NewLogger(cfg)
	db, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return db.Close()
}

// Sweep runs a single housekeeping pass against the configured store.
func Sweep(ctx context.Context, cfg Config) (service.CleanupResult, error) {
	logger := NewLogger(cfg)
	db, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return service.CleanupResult{}, err
	}
	defer func() { _ = db.Close() }()

	hk := service.NewHousekeepingService(db, logger, cfg.HousekeepingInterval)
	return hk.RunOnce(ctx), nil
}
