package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ertcli/internal/infrastructure"
	"ertcli/internal/operations"
	"ertcli/internal/report"
	"ertcli/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"configuration", report.NewConfigurationError("configuration", "output filename is required"), http.StatusUnprocessableEntity, TypeReportConfig},
		{"unsupported filter", report.NewUnsupportedFilterError("time", report.PropertyKind("regex")), http.StatusUnprocessableEntity, TypeReportFilter},
		{"fatal write", report.NewFatalWriteError(report.PhaseWrite, errors.New("disk full")), http.StatusInternalServerError, TypeReportWrite},
		{"settings invalid", report.NewPersistenceError("failed to parse settings", nil), http.StatusBadRequest, TypeSettings},
		{"settings missing", report.NewPersistenceError("settings not found", nil).WithContext("not_found", true), http.StatusNotFound, TypeSettings},
		{"job missing", operations.NewNotFoundError("j1"), http.StatusNotFound, TypeJobNotFound},
		{"job running", operations.NewInvalidStateError("j1", operations.JobStatusRunning, "cancel"), http.StatusConflict, TypeJobState},
		{"queue full", fmt.Errorf("enqueue: %w", operations.NewQueueFullError("j1")), http.StatusServiceUnavailable, TypeJobQueueFull},
		{"api error", NotFoundError("settings"), http.StatusNotFound, TypeNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, TypeInternal},
	}

	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/j1", nil)
			rec := httptest.NewRecorder()
			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/v1/reports/j1", body["instance"])
		})
	}
}

func TestHandleError_TraceIDAndLogging(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", nil)
	req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-9"))
	rec := httptest.NewRecorder()
	h.HandleError(rec, req, report.NewFatalWriteError(report.PhasePackage, errors.New("zip")))

	body := decodeProblem(t, rec)
	assert.Equal(t, "trace-9", body["trace_id"])
	assert.Equal(t, report.PhasePackage, body["phase"])
	assert.True(t, handler.ContainsMessage("request failed"))
}

func TestRecoverer(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	panicking := h.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rec := httptest.NewRecorder()
	panicking.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "kaboom", body["panic"])
	assert.True(t, handler.ContainsMessage("panic recovered"))
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := NewErrorHandler(nil, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "PATCH")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	p := NewProblemDetails(http.StatusConflict, TypeConflict, "Conflict", "", "/x").
		WithExtension("job_id", "j1").
		WithExtension("type", "ignored")

	data, err := json.Marshal(p)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeConflict, body["type"])
	assert.Equal(t, "j1", body["job_id"])
	_, hasDetail := body["detail"]
	assert.False(t, hasDetail)
}
