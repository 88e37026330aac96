package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures messages and attributes", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("report written", slog.Int("rows", 2))
		logger.Error("row failed", slog.String("column", "time"))

		require.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("report written"))
		assert.True(t, handler.ContainsAttr("rows", int64(2)))
		assert.True(t, handler.ContainsAttr("column", "time"))
		assert.False(t, handler.ContainsAttr("column", "user_id"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug")
		logger.Info("info")
		logger.Warn("warn")
		logger.Error("error")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelDebug), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("derived loggers share records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		component := logger.With(slog.String("component", "jobqueue"))
		component.WithGroup("job").Info("job enqueued", slog.String("id", "j1"))

		records := handler.GetRecords()
		require.Len(t, records, 1)
		assert.Equal(t, "jobqueue", records[0].Attrs["component"])
		assert.Equal(t, "j1", records[0].Attrs["job.id"])
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("one")
		handler.Clear()
		logger.Info("two")

		assert.Equal(t, 1, handler.Count())
		assert.False(t, handler.ContainsMessage("one"))
	})
}
