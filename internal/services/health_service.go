package services

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"ertcli/internal/operations"
	api "ertcli/pkg/contracts/api/v1"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	queue     *operations.JobQueue
	startTime time.Time
	logger    *slog.Logger
	now       func() time.Time
}

// NewHealthService creates a new health service
func NewHealthService(version string, queue *operations.JobQueue, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		queue:     queue,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
		now:       time.Now,
	}
}

// HealthCheck returns overall health status. The service is degraded while
// the job queue is full.
func (hs *HealthService) HealthCheck(ctx context.Context) api.HealthResponse {
	now := hs.now()
	status := api.HealthResponse{
		Status:    "ok",
		Version:   hs.version,
		Timestamp: now,
		Uptime:    strings.TrimSpace(humanize.RelTime(hs.startTime, now, "", "")),
		Jobs:      map[string]int{},
	}
	if hs.queue == nil {
		return status
	}

	stats := hs.queue.GetQueueStats()
	status.Queue = api.QueueResponse{
		Workers:  stats.Workers,
		Queued:   stats.Queued,
		Capacity: stats.Capacity,
		Live:     stats.Live,
	}
	if stats.Capacity > 0 && stats.Queued >= stats.Capacity {
		status.Status = "degraded"
	}
	jobs, err := hs.queue.ListJobs(operations.JobFilter{})
	if err != nil {
		hs.logger.WarnContext(ctx, "HealthCheck: failed to list jobs", slog.String("error", err.Error()))
		return status
	}
	for _, job := range jobs {
		status.Jobs[string(job.Status)]++
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed",
		slog.String("status", status.Status),
		slog.Int("goroutines", runtime.NumGoroutine()))
	return status
}
