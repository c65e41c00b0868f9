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

	httpapi "github.com/aussiebroadwan/muster/internal/invites/http"
	"github.com/aussiebroadwan/muster/internal/invites/identity"
	"github.com/aussiebroadwan/muster/internal/invites/metrics"
	"github.com/aussiebroadwan/muster/internal/invites/service"
	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/pkg/jwtx"
	"github.com/aussiebroadwan/muster/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	// BuildVersion is overridden at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the invitation service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	keys     *jwtx.KeySet
	verifier jwtx.Verifier
	registry *prometheus.Registry

	validator    *service.Validator
	orchestrator *service.Orchestrator
	sweeper      *service.Sweeper

	server        *http.Server
	router        *httpapi.Router
	stopKeyReload context.CancelFunc
}

// New creates an Application with every dependency initialised.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "muster",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		registry: prometheus.NewRegistry(),
	}

	ctx := context.Background()

	db, err := OpenStore(ctx, cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	keys, verifier, err := InitSessionKeys(ctx, cfg, app.logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load session keys: %w", err)
	}
	app.keys = keys
	app.verifier = verifier

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.Start()

	app.logger.Info("muster starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
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

// Start launches the background workers without serving HTTP.
func (app *Application) Start() {
	app.sweeper.Start()

	ctx, cancel := context.WithCancel(context.Background())
	app.stopKeyReload = cancel
	go refreshKeys(ctx, app.keys, app.cfg.JWKSURL(), app.cfg.IdentityKeysRefresh, app.cfg.IdentityTimeout, app.logger)
}

// Shutdown stops the server and workers, then closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down muster...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Workers only run after Start.
	if app.stopKeyReload != nil {
		app.stopKeyReload()
		app.sweeper.Stop()
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("muster stopped")
	return nil
}

func (app *Application) initServices() {
	rec := metrics.NewCollector(app.registry)

	app.validator = &service.Validator{Store: app.db, Metrics: rec}
	granter := &service.Granter{Store: app.db, Metrics: rec}

	app.orchestrator = &service.Orchestrator{
		Store:       app.db,
		Validator:   app.validator,
		Resolver:    &service.Resolver{Store: app.db, FallbackDomain: app.cfg.FallbackEmailDomain},
		Granter:     granter,
		Provisioner: identity.NewHTTPProvisioner(app.cfg.IdentityURL, app.cfg.IdentityTimeout),
		Sessions:    identity.JWTSessions{Verifier: app.verifier},
		Metrics:     rec,
	}

	app.sweeper = service.NewSweeper(app.db, app.logger, app.cfg.SweepInterval, rec)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys,
		app.verifier,
		BuildVersion,
		app.db,
		app.registry,
		app.logger,
	)

	router.Validator = app.validator
	router.Orchestrator = app.orchestrator
	router.Sweeper = app.sweeper
	router.Limits = app.cfg.RateLimits
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
