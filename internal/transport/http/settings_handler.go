package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "ertcli/internal/errors"
	"ertcli/internal/middleware"
	"ertcli/internal/report"
	"ertcli/internal/settings"
	api "ertcli/pkg/contracts/api/v1"
)

// SettingsHandler serves saved report settings
type SettingsHandler struct {
	store           *settings.Store
	defaultFileName string
	validator       *middleware.Validator
	errors          *apierrors.ErrorHandler
	logger          *slog.Logger
}

// NewSettingsHandler creates a new settings handler. defaultFileName seeds
// configurations whose settings file names no report file.
func NewSettingsHandler(store *settings.Store, defaultFileName string, validator *middleware.Validator, errHandler *apierrors.ErrorHandler, logger *slog.Logger) *SettingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsHandler{
		store:           store,
		defaultFileName: defaultFileName,
		validator:       validator,
		errors:          errHandler,
		logger:          logger.With(slog.String("handler", "settings")),
	}
}

// Routes returns the settings routes
func (h *SettingsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListSettings)
	r.Get("/{name}", h.GetSettings)
	r.With(middleware.ContentTypeValidator("application/json")).Put("/{name}", h.SaveSettings)
	return r
}

// ListSettings handles GET /api/v1/settings
func (h *SettingsHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.List()
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.SettingsListResponse{Settings: names})
}

// GetSettings handles GET /api/v1/settings/{name}
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cfg := report.NewConfiguration(h.defaultFileName)
	if err := h.store.Load(name, cfg); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	spec, err := settings.ToSpec(cfg)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.SettingsResponse{Name: name, Configuration: spec})
}

// SaveSettings handles PUT /api/v1/settings/{name}
func (h *SettingsHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req api.SaveSettingsRequest
	if err := h.validator.Decode(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	cfg, err := settings.FromSpec(req.Configuration)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	if err := h.store.Save(name, cfg); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "settings saved", slog.String("name", name))
	render.JSON(w, r, api.SettingsResponse{Name: name, Configuration: req.Configuration})
}
