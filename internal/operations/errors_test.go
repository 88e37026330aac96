package operations

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationError(t *testing.T) {
	err := NewInvalidStateError("j1", JobStatusRunning, "cancel")
	assert.Equal(t, "[invalid_state] job j1: cannot cancel a running job", err.Error())
	assert.True(t, IsInvalidState(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsNotFound(err))

	cause := errors.New("boom")
	exec := NewExecutionError("j1", cause)
	assert.ErrorIs(t, exec, cause)
	assert.Equal(t, "[queue_full] job j2: job queue is full", NewQueueFullError("j2").Error())

	var nilErr *OperationError
	assert.Equal(t, "unknown operation error", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())
}
