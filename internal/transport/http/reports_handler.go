package http

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "ertcli/internal/errors"
	"ertcli/internal/middleware"
	"ertcli/internal/services"
	ws "ertcli/internal/websocket"
	api "ertcli/pkg/contracts/api/v1"
)

// ReportsHandler handles report job HTTP requests
type ReportsHandler struct {
	service   *services.ReportService
	validator *middleware.Validator
	errors    *apierrors.ErrorHandler
	streamer  *ws.Streamer
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(service *services.ReportService, validator *middleware.Validator, errHandler *apierrors.ErrorHandler, streamer *ws.Streamer, logger *slog.Logger) *ReportsHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportsHandler{
		service:   service,
		validator: validator,
		errors:    errHandler,
		streamer:  streamer,
		logger:    logger.With(slog.String("handler", "reports")),
		tracer:    otel.Tracer("reports-handler"),
	}
}

// Routes returns the report routes
func (h *ReportsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.ContentTypeValidator("application/json")).Post("/", h.CreateReport)
	r.Get("/", h.ListReports)
	r.Get("/{id}", h.GetReport)
	r.Delete("/{id}", h.DeleteReport)
	r.Get("/{id}/archive", h.DownloadArchive)
	r.Get("/{id}/ws", h.StreamProgress)

	return r
}

// CreateReport handles POST /api/v1/reports
func (h *ReportsHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "reports_handler.create",
		trace.WithAttributes(attribute.String("request_id", middleware.GetReqID(r.Context()))))
	defer span.End()
	r = r.WithContext(ctx)

	var req api.CreateReportRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.fail(w, r, span, err)
		return
	}

	job, err := h.service.Submit(ctx, req)
	if err != nil {
		h.fail(w, r, span, err)
		return
	}

	span.SetAttributes(attribute.String("job.id", job.ID))
	h.logger.InfoContext(ctx, "report job accepted",
		slog.String("job_id", job.ID),
		slog.String("name", job.Name))

	w.Header().Set("Location", "/api/v1/reports/"+job.ID)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, services.JobResponse(job))
}

// ListReports handles GET /api/v1/reports
func (h *ReportsHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	req := api.ReportListRequest{Status: r.URL.Query().Get("status")}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			h.errors.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
		req.Limit = limit
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	jobs, err := h.service.List(req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, services.JobListResponse(jobs))
}

// GetReport handles GET /api/v1/reports/{id}
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, services.JobResponse(job))
}

// DeleteReport handles DELETE /api/v1/reports/{id}. Pending jobs are
// cancelled and finished jobs are removed.
func (h *ReportsHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(id); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "report job deleted", slog.String("job_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// DownloadArchive handles GET /api/v1/reports/{id}/archive
func (h *ReportsHandler) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	path, err := h.service.Archive(chi.URLParam(r, "id"))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}

// StreamProgress handles GET /api/v1/reports/{id}/ws. Progress is pushed
// until the job finishes.
func (h *ReportsHandler) StreamProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.service.Get(id); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	err := h.streamer.Serve(w, r, func() (ws.Message, bool, error) {
		job, err := h.service.Get(id)
		if err != nil {
			return ws.Message{}, true, err
		}
		return ws.Message{
			Type:     ws.TypeProgress,
			JobID:    job.ID,
			Status:   string(job.Status),
			Progress: services.ProgressResponse(job.Progress),
			Error:    job.Error,
		}, job.Status.Finished(), nil
	})
	if err != nil {
		h.logger.DebugContext(r.Context(), "progress stream ended with error",
			slog.String("job_id", id),
			slog.String("error", err.Error()))
	}
}

func (h *ReportsHandler) fail(w http.ResponseWriter, r *http.Request, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	h.errors.HandleError(w, r, err)
}
