package report

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := NewFatalWriteError(PhaseWrite, io.ErrShortWrite)
	assert.Contains(t, err.Error(), "[fatal_write]")
	assert.Contains(t, err.Error(), PhaseWrite)
	assert.Contains(t, err.Error(), io.ErrShortWrite.Error())

	assert.Equal(t, "[configuration] no columns", (&Error{Type: ErrorTypeConfiguration, Message: "no columns"}).Error())
}

func TestError_IsAndUnwrap(t *testing.T) {
	err := fmt.Errorf("writing report: %w", NewFatalWriteError(PhaseWrite, io.ErrShortWrite))

	assert.True(t, errors.Is(err, &Error{Type: ErrorTypeFatalWrite}))
	assert.True(t, errors.Is(err, &Error{Type: ErrorTypeFatalWrite, Phase: PhaseWrite}))
	assert.False(t, errors.Is(err, &Error{Type: ErrorTypeFatalWrite, Phase: PhaseFilter}))
	assert.False(t, errors.Is(err, &Error{Type: ErrorTypePersistence}))
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestTypeOfAndIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		typ   ErrorType
		fatal bool
	}{
		{"nil", nil, "", false},
		{"plain", io.EOF, "", true},
		{"configuration", NewConfigurationError("construct", "bad"), ErrorTypeConfiguration, true},
		{"unsupported filter", NewUnsupportedFilterError("score", "custom"), ErrorTypeUnsupportedFilter, true},
		{"recoverable row", NewRecoverableRowError(3, "bad cell", nil), ErrorTypeRecoverableRow, false},
		{"persistence", NewPersistenceError("unreadable", io.EOF), ErrorTypePersistence, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, TypeOf(tt.err))
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}

func TestError_WithContext(t *testing.T) {
	err := NewPersistenceError("missing", nil).WithContext("not_found", true)
	assert.Equal(t, true, err.Context["not_found"])

	row := NewRecoverableRowError(7, "bad", nil)
	assert.Equal(t, 7, row.Context["row"])
}
