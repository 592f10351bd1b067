package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kpitracker/internal/platform/config"
	"kpitracker/internal/platform/db"
	"kpitracker/internal/platform/metrics"
	"kpitracker/internal/platform/tracing"
	"kpitracker/internal/transport/http/api"
	audithandler "kpitracker/internal/transport/http/handlers/audit"
	automationhandler "kpitracker/internal/transport/http/handlers/automation"
	orghandler "kpitracker/internal/transport/http/handlers/org"
	performancehandler "kpitracker/internal/transport/http/handlers/performance"
	"kpitracker/internal/transport/http/middleware"
)

type App struct {
	Config   config.Config
	DB       *db.Handle
	Services Services
	Metrics  *metrics.Collector
	Router   http.Handler

	shutdownTracing func(context.Context) error
}

// New opens the database, applies migrations and seed data as configured,
// and builds the router. Call Close when done.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shutdownTracing, err := tracing.Init(ctx, tracing.Options{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  "kpitracker",
		Environment:  cfg.Environment,
		SamplerRatio: cfg.OTelSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	handle, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("db open: %w", err)
	}
	app := &App{
		Config:          cfg,
		DB:              handle,
		Services:        NewServices(handle),
		Metrics:         metrics.New(),
		shutdownTracing: shutdownTracing,
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, handle); err != nil {
			app.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if _, err := db.Seed(ctx, app.Services.Org, cfg); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	app.Router = app.routes()
	return app, nil
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	svc := a.Services

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(zap.L(), a.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, svc.Org))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, map[string]string{"status": "ok"}, middleware.GetRequestID(r.Context()))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database not ready", middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, map[string]string{"status": "ready"}, middleware.GetRequestID(r.Context()))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		orghandler.NewHandler(svc.Org, svc.Audit).RegisterRoutes(r)
		performancehandler.NewHandler(svc.Performance, svc.Org, svc.Audit, a.Metrics).RegisterRoutes(r)
		automationhandler.NewHandler(svc.Automation, svc.Org, svc.Audit, a.Metrics).RegisterRoutes(r)
		audithandler.NewHandler(svc.Audit).RegisterRoutes(r)
	})

	return router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("kpitracker listening", zap.String("addr", a.Config.Addr), zap.String("dialect", string(a.DB.Dialect)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		zap.L().Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracing(ctx); err != nil {
			zap.L().Warn("tracing shutdown failed", zap.Error(err))
		}
	}
}
