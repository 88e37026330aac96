package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"ertcli/internal/config"
	"ertcli/internal/infrastructure"
	"ertcli/internal/operations"
	"ertcli/internal/services"
	"ertcli/internal/settings"
	transport "ertcli/internal/transport/http"
	"ertcli/pkg/contracts"
)

// jobQueueStopTimeout bounds how long shutdown waits for running reports.
const jobQueueStopTimeout = 30 * time.Second

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        http.Handler
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.ServiceMetrics
	JobQueue      *operations.JobQueue
	Settings      *settings.Store
	ReportService *services.ReportService
	HealthService *services.HealthService
}

// NewApplication wires the report service from cfg. A nil logger uses the
// global logger.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("version", contracts.Version),
		slog.String("address", cfg.Address()))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Otel, contracts.Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.CreateServiceMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create service metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}
	app.initializeServices()
	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices creates the job queue, settings store and services
func (a *Application) initializeServices() {
	a.JobQueue = operations.NewJobQueue(a.Config.Jobs.Workers, a.Config.Jobs.QueueSize,
		operations.NewMemoryJobStore(), a.Logger)
	a.JobQueue.SetMetrics(a.Metrics)
	a.Settings = settings.NewStore(a.Config.Report.SettingsDir, a.Logger)
	a.ReportService = services.NewReportService(a.JobQueue, a.Settings, a.Config.Report, a.Logger)
	a.HealthService = services.NewHealthService(contracts.Version, a.JobQueue, a.Logger)
}

func (a *Application) setupRouter() {
	a.Router = transport.NewRouter(transport.RouterDeps{
		Config:   a.Config,
		Reports:  a.ReportService,
		Health:   a.HealthService,
		Settings: a.Settings,
		OTel:     a.OTelProviders,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run serves until ctx is done or the server fails, then shuts down.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.JobQueue.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening", slog.String("address", ln.Addr().String()))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.JobQueue.RunCleanup(gctx, a.Config.Jobs.CleanupInterval, a.Config.Jobs.Retention)
	})
	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.Background())
	})
	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.Logger.InfoContext(ctx, "Stopping job queue")
	if err := a.JobQueue.Stop(jobQueueStopTimeout); err != nil {
		a.Logger.ErrorContext(ctx, "Failed to stop job queue gracefully", slog.String("error", err.Error()))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}
