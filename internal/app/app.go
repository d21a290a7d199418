package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"institute-service/internal/auth"
	"institute-service/internal/config"
	"institute-service/internal/db"
	"institute-service/internal/events"
	"institute-service/internal/health"
	"institute-service/internal/logger"
	"institute-service/internal/middleware"
	"institute-service/internal/records"
	"institute-service/internal/schema"
	"institute-service/internal/store"
	"institute-service/internal/telemetry"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
)

type App struct {
	config    *config.Config
	router    chi.Router
	server    *http.Server
	store     *store.Store
	publisher events.Publisher
	telemetry *telemetry.Telemetry
	logger    *slog.Logger
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slogLogger := logger.NewWithServiceContext(cfg.Env, ServiceName, Version)

	// Set as default logger so slog.Info() uses the same handler
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application", "git_commit", GitCommit, "build_time", BuildTime)

	tel, err := telemetry.Init(ctx, cfg.Telemetry, ServiceName, Version, slogLogger)
	if err != nil {
		return nil, err
	}

	database, err := db.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := tel.Metrics.DB().RegisterDB(database.DB, otel.Meter(ServiceName)); err != nil {
		slogLogger.Warn("failed to register database pool metrics", "error", err)
	}

	s := schema.Default()
	if err := records.Migrate(ctx, database, s, (*auth.User)(nil)); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	st := store.New(database, tel.Metrics)
	publisher := newPublisher(cfg.Events, slogLogger)

	app := &App{
		config:    cfg,
		router:    chi.NewRouter(),
		store:     st,
		publisher: publisher,
		telemetry: tel,
		logger:    slogLogger,
	}

	app.router.Use(chimiddleware.RequestID)
	app.router.Use(chimiddleware.Recoverer)
	app.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	// Health endpoints (no auth required)
	health.NewHandler(st, slogLogger).RegisterRoutes(app.router)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Duration(cfg.Auth.AccessTokenTTL)*time.Minute)
	authService := auth.NewService(st, auth.NewRepository(tel.Metrics), tokens)
	auth.NewHandler(authService, slogLogger).RegisterRoutes(app.router)

	recordsHandler := records.NewHandler(records.New(st, s, publisher, slogLogger), slogLogger)

	app.router.Route("/api", func(r chi.Router) {
		if cfg.Auth.Disabled {
			slogLogger.Warn("authentication disabled for /api")
		} else {
			r.Use(auth.Middleware(tokens, slogLogger))
		}
		recordsHandler.RegisterRoutes(r)
	})

	slogLogger.Info("application initialized successfully")

	return app, nil
}

// Router exposes the HTTP handler, e.g. for httptest servers.
func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}
	errs = append(errs,
		a.publisher.Close(),
		a.store.Close(),
		a.telemetry.Shutdown(ctx, a.logger),
	)
	return errors.Join(errs...)
}
