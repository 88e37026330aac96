package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/render"

	"ertcli/internal/infrastructure"
	"ertcli/internal/operations"
	"ertcli/internal/report"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	if traceID := infrastructure.GetTraceID(r.Context()); traceID != "" {
		problem.WithExtension("trace_id", traceID)
	}
	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The request took too long to process and was cancelled", r.URL.Path)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErrorToProblem(apiErr, r)
	}

	var reportErr *report.Error
	if errors.As(err, &reportErr) {
		return FromReport(reportErr, r.URL.Path)
	}

	var opErr *operations.OperationError
	if errors.As(err, &opErr) {
		return fromOperation(opErr, r.URL.Path)
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred while processing your request", r.URL.Path)
}

// FromReport maps a report error onto a problem. Configuration and filter
// errors are the caller's fault; write failures are the server's.
func FromReport(err *report.Error, instance string) *ProblemDetails {
	var problem *ProblemDetails
	switch err.Type {
	case report.ErrorTypeConfiguration:
		problem = NewProblemDetails(http.StatusUnprocessableEntity, TypeReportConfig,
			"Invalid Report Configuration", err.Error(), instance)
	case report.ErrorTypeUnsupportedFilter:
		problem = NewProblemDetails(http.StatusUnprocessableEntity, TypeReportFilter,
			"Unsupported Filter", err.Error(), instance)
	case report.ErrorTypePersistence:
		status := http.StatusBadRequest
		if notFound, _ := err.Context["not_found"].(bool); notFound || errors.Is(err, fs.ErrNotExist) {
			status = http.StatusNotFound
		}
		problem = NewProblemDetails(status, TypeSettings, "Settings Error", err.Error(), instance)
	default:
		problem = NewProblemDetails(http.StatusInternalServerError, TypeReportWrite,
			"Report Write Failed", err.Error(), instance)
	}
	if err.Phase != "" {
		problem.WithExtension("phase", err.Phase)
	}
	problem.WithExtension("error_type", string(err.Type))
	return problem
}

func fromOperation(err *operations.OperationError, instance string) *ProblemDetails {
	var problem *ProblemDetails
	switch err.Type {
	case operations.ErrorTypeNotFound:
		problem = NewProblemDetails(http.StatusNotFound, TypeJobNotFound, "Report Job Not Found", err.Error(), instance)
	case operations.ErrorTypeInvalidState:
		problem = NewProblemDetails(http.StatusConflict, TypeJobState, "Invalid Job State", err.Error(), instance)
	case operations.ErrorTypeQueueFull:
		problem = NewProblemDetails(http.StatusServiceUnavailable, TypeJobQueueFull, "Report Queue Full", err.Error(), instance).
			WithExtension("retry_after", 30)
	default:
		problem = NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Report Job Failed", err.Error(), instance)
	}
	if err.JobID != "" {
		problem.WithExtension("job_id", err.JobID)
	}
	return problem
}

// apiErrorToProblem converts APIError to ProblemDetails
func apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case "VALIDATION_FAILED", "INVALID_REQUEST":
		problemType = TypeValidation
	case "NOT_FOUND":
		problemType = TypeNotFound
	case "CONFLICT":
		problemType = TypeConflict
	case "RATE_LIMIT_EXCEEDED":
		problemType = TypeRateLimit
	case "QUEUE_FULL":
		problemType = TypeServiceDown
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// HandlePanic recovers from panics and returns RFC 7807 error
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())))

	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred", r.URL.Path)
	if traceID := infrastructure.GetTraceID(r.Context()); traceID != "" {
		problem.WithExtension("trace_id", traceID)
	}
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", string(debug.Stack()))
	}
	render.Render(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"The requested resource was not found", r.URL.Path)
	render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(http.StatusMethodNotAllowed, TypeMethod, "Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r.URL.Path)
	render.Render(w, r, problem)
}

// Recoverer turns panics into RFC 7807 responses
func (h *ErrorHandler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.HandlePanic(w, r, rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
