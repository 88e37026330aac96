package report

import (
	"errors"
	"fmt"
)

// ErrorType classifies report generation failures.
type ErrorType string

const (
	ErrorTypeConfiguration     ErrorType = "configuration"
	ErrorTypeUnsupportedFilter ErrorType = "unsupported_filter"
	ErrorTypeFatalWrite        ErrorType = "fatal_write"
	ErrorTypeRecoverableRow    ErrorType = "recoverable_row"
	ErrorTypePersistence       ErrorType = "persistence"
)

// Error is a report generation error.
type Error struct {
	Type    ErrorType              `json:"type"`
	Phase   string                 `json:"phase,omitempty"`
	Message string                 `json:"message"`
	Cause   error                  `json:"cause,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "unknown report error"
	}
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Phase != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Phase, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches another *Error of the same type, so sentinel-style checks like
// errors.Is(err, &Error{Type: ErrorTypeFatalWrite}) work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return t.Type == e.Type && (t.Phase == "" || t.Phase == e.Phase)
}

// WithContext attaches a key/value pair and returns the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewConfigurationError reports invalid construction input.
func NewConfigurationError(phase, message string) *Error {
	return &Error{Type: ErrorTypeConfiguration, Phase: phase, Message: message}
}

// NewUnsupportedFilterError reports a filter property kind the row filter
// cannot evaluate.
func NewUnsupportedFilterError(column string, kind PropertyKind) *Error {
	return &Error{
		Type:    ErrorTypeUnsupportedFilter,
		Phase:   PhaseFilter,
		Message: fmt.Sprintf("unhandled column property %q for column %s", kind, column),
		Context: map[string]interface{}{"column": column, "kind": string(kind)},
	}
}

// NewFatalWriteError reports an I/O failure that aborts the output.
func NewFatalWriteError(phase string, cause error) *Error {
	return &Error{Type: ErrorTypeFatalWrite, Phase: phase, Message: "write failed", Cause: cause}
}

// NewRecoverableRowError reports a single row or cell that could not be written.
func NewRecoverableRowError(row int, message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeRecoverableRow,
		Phase:   PhaseWrite,
		Message: message,
		Cause:   cause,
		Context: map[string]interface{}{"row": row},
	}
}

// NewPersistenceError reports a settings save or load failure.
func NewPersistenceError(message string, cause error) *Error {
	return &Error{Type: ErrorTypePersistence, Phase: "settings", Message: message, Cause: cause}
}

// TypeOf returns the ErrorType of err, or "" when err is not a report error.
func TypeOf(err error) ErrorType {
	var rErr *Error
	if errors.As(err, &rErr) {
		return rErr.Type
	}
	return ""
}

// IsFatal reports whether err aborts a report run. Recoverable row errors do not.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return TypeOf(err) != ErrorTypeRecoverableRow
}
