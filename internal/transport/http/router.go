package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ertcli/internal/config"
	apierrors "ertcli/internal/errors"
	"ertcli/internal/infrastructure"
	"ertcli/internal/middleware"
	"ertcli/internal/services"
	"ertcli/internal/settings"
	ws "ertcli/internal/websocket"
)

// RouterDeps holds everything the router wires together.
type RouterDeps struct {
	Config   *config.Config
	Reports  *services.ReportService
	Health   *services.HealthService
	Settings *settings.Store
	OTel     *infrastructure.OTelProviders
	Metrics  *infrastructure.ServiceMetrics
	Logger   *slog.Logger
}

// NewRouter builds the HTTP API.
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	serverCfg := deps.Config.Server
	errHandler := apierrors.NewErrorHandler(logger, false)
	validator := middleware.NewValidator(logger)

	r := chi.NewRouter()
	r.NotFound(errHandler.NotFound)
	r.MethodNotAllowed(errHandler.MethodNotAllowed)

	r.Use(middleware.RequestID)
	if deps.OTel != nil {
		r.Use(middleware.NewOTelMiddleware(deps.OTel.Tracer, deps.Metrics).Handler)
	}
	r.Use(middleware.StructuredLogger(logger))
	r.Use(errHandler.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: serverCfg.AllowedOrigins}))

	health := NewHealthHandler(deps.Health, logger)
	r.Get("/healthz", health.HealthCheck)
	if deps.OTel != nil && deps.OTel.PrometheusHTTP != nil {
		r.Handle("/metrics", deps.OTel.PrometheusHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if serverCfg.RateLimit.Enabled {
			r.Use(middleware.NewRateLimiter(serverCfg.RateLimit.RPS, serverCfg.RateLimit.Burst, logger).Handler)
		}

		streamer := ws.NewStreamer(func(origin string) bool {
			return middleware.OriginAllowed(serverCfg.AllowedOrigins, origin)
		}, deps.Config.Jobs.PollInterval, logger)
		r.Mount("/reports", NewReportsHandler(deps.Reports, validator, errHandler, streamer, logger).Routes())
		if deps.Settings != nil {
			r.Mount("/settings", NewSettingsHandler(deps.Settings, deps.Config.Report.FileName, validator, errHandler, logger).Routes())
		}
	})

	return r
}
