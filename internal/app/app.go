package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"groupagg/internal/config"
	apierrors "groupagg/internal/errors"
	"groupagg/internal/infrastructure"
	customMiddleware "groupagg/internal/middleware"
	"groupagg/internal/services"
	handlers "groupagg/internal/transport/http"
)

const (
	VERSION = "0.3.0"
	AppName = "groupagg"
)

// BuildTime is set at link time with -ldflags "-X groupagg/internal/app.BuildTime=...".
var BuildTime = ""

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Aggregation   *services.AggregationService
	Health        *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
}

// New wires telemetry, services, router and server from cfg. A nil logger
// uses slog.Default().
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, apierrors.NewConfigError("configuration is required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices() error {
	aggCfg, err := a.Config.Aggregation.AggregatorConfig()
	if err != nil {
		return err
	}
	a.Aggregation = services.NewAggregationService(aggCfg, a.Logger)
	a.Health = services.NewHealthService(VERSION, BuildTime, a.Aggregation.Workers(), a.Logger)

	a.Logger.Info("Services initialized",
		slog.Int("workers", a.Aggregation.Workers()),
		slog.String("ordering", aggCfg.Ordering.String()))
	return nil
}

// setupRouter builds the chi router. Middleware order: RequestID, RealIP,
// OTel, request logging with recovery, headers, rate limiting.
func (a *Application) setupRouter() error {
	loaderOpts, err := a.Config.Loader.Options()
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	if a.Config.Telemetry.Enabled {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.Logger)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}
	}

	r.Use(apierrors.NewErrorMiddleware(a.ErrorHandler, a.Logger).Handler)
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
		ExposedHeaders: []string{customMiddleware.RequestIDHeader},
	}))
	r.Use(customMiddleware.Compress(5))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	health := handlers.NewHealthHandler(a.Health, a.Logger)
	r.Get("/healthz", health.HealthCheck)
	r.Get("/livez", health.LivenessCheck)
	r.Get("/version", health.Version)
	r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler))

	aggregateHandler := handlers.NewAggregateHandler(
		a.Aggregation,
		customMiddleware.NewValidator(a.Logger),
		a.ErrorHandler,
		loaderOpts,
		a.Config.Loader.MaxUploadBytes,
		a.Logger,
	)

	r.Route("/api/v1", func(r chi.Router) {
		if rl := a.Config.Server.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, a.ErrorHandler).Handler)
		}
		r.Use(customMiddleware.BodyLimit(a.Config.Loader.MaxUploadBytes))
		r.Use(customMiddleware.Timeout(a.Config.Aggregation.Timeout))
		r.Mount("/aggregate", aggregateHandler.Routes())
	})

	a.Router = r
	return nil
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run serves until ctx is done or the listener fails, then shuts down
// within the configured ShutdownTimeout.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	a.Logger.InfoContext(ctx, "Server listening",
		slog.String("address", ln.Addr().String()),
		slog.String("version", VERSION))

	serveErr := make(chan error, 1)
	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Shutdown requested")
	case err := <-serveErr:
		if err != nil {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			_ = a.Stop(context.Background())
			return fmt.Errorf("server error: %w", err)
		}
	}

	return a.Stop(context.Background())
}

// Stop gracefully stops the server and flushes telemetry.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}
