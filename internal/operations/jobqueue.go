package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"ertcli/internal/generator"
	"ertcli/internal/infrastructure"
	"ertcli/internal/report"
)

// MetadataTraceID is the job metadata key carrying the submitting request's trace ID.
const MetadataTraceID = "trace_id"

// task is a queued job with the work it runs.
type task struct {
	id     string
	runner Runner
	rows   []*report.Row
}

// JobQueue manages async report generation
type JobQueue struct {
	mu       sync.RWMutex
	tasks    chan *task
	workers  int
	wg       sync.WaitGroup
	store    JobStore
	logger   *slog.Logger
	metrics  *infrastructure.ServiceMetrics
	shutdown chan struct{}
	stopOnce sync.Once
	// live holds queued and running jobs so their progress can be read
	live map[string]*task
	now  func() time.Time
}

// NewJobQueue creates a new job queue
func NewJobQueue(workers, queueSize int, store JobStore, logger *slog.Logger) *JobQueue {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = workers * 2
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &JobQueue{
		tasks:    make(chan *task, queueSize),
		workers:  workers,
		store:    store,
		logger:   logger.With(slog.String("component", "jobqueue")),
		shutdown: make(chan struct{}),
		live:     make(map[string]*task),
		now:      time.Now,
	}
}

// SetMetrics records job metrics on m.
func (q *JobQueue) SetMetrics(m *infrastructure.ServiceMetrics) {
	q.metrics = m
}

// Start begins processing jobs
func (q *JobQueue) Start(ctx context.Context) {
	q.logger.Info("starting job queue", slog.Int("workers", q.workers), slog.Int("capacity", cap(q.tasks)))
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

// Stop gracefully shuts down the job queue. Running reports finish; queued
// jobs stay pending.
func (q *JobQueue) Stop(timeout time.Duration) error {
	q.logger.Info("stopping job queue")
	q.stopOnce.Do(func() { close(q.shutdown) })

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("job queue stopped gracefully")
		return nil
	case <-time.After(timeout):
		q.logger.Warn("job queue stop timeout exceeded")
		return fmt.Errorf("timeout waiting for workers to finish")
	}
}

// Enqueue stores job as pending and queues runner over rows. An empty job ID
// is generated.
func (q *JobQueue) Enqueue(ctx context.Context, job *Job, runner Runner, rows []*report.Row) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = JobStatusPending
	job.CreatedAt = q.now()
	job.Progress = runner.Progress().Snapshot()
	if traceID := infrastructure.GetTraceID(ctx); traceID != "" {
		if job.Metadata == nil {
			job.Metadata = make(map[string]string)
		}
		job.Metadata[MetadataTraceID] = traceID
	}

	if err := q.store.CreateJob(job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	t := &task{id: job.ID, runner: runner, rows: rows}
	q.mu.Lock()
	q.live[job.ID] = t
	q.mu.Unlock()

	select {
	case q.tasks <- t:
		if q.metrics != nil {
			q.metrics.JobsSubmitted.Add(ctx, 1)
		}
		q.logger.InfoContext(ctx, "job enqueued",
			slog.String("job_id", job.ID),
			slog.String("name", job.Name),
			slog.Int("rows", len(rows)))
		return nil
	default:
		q.mu.Lock()
		delete(q.live, job.ID)
		q.mu.Unlock()
		job.Status = JobStatusFailed
		job.Error = "job queue is full"
		completedAt := q.now()
		job.CompletedAt = &completedAt
		q.store.UpdateJob(job)
		return NewQueueFullError(job.ID)
	}
}

// GetJob retrieves a job by ID with its current progress
func (q *JobQueue) GetJob(id string) (*Job, error) {
	job, err := q.store.GetJob(id)
	if err != nil {
		return nil, err
	}
	q.refresh(job)
	return job, nil
}

// ProgressStatus returns the live status of a queued or running job.
func (q *JobQueue) ProgressStatus(id string) (*report.ProgressStatus, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	t, ok := q.live[id]
	if !ok {
		return nil, false
	}
	return t.runner.Progress(), true
}

// ListJobs returns jobs matching the filter
func (q *JobQueue) ListJobs(filter JobFilter) ([]*Job, error) {
	jobs, err := q.store.ListJobs(filter)
	if err != nil {
		return nil, err
	}
	for _, job := range jobs {
		q.refresh(job)
	}
	return jobs, nil
}

func (q *JobQueue) refresh(job *Job) {
	if status, ok := q.ProgressStatus(job.ID); ok {
		job.Progress = status.Snapshot()
	}
}

// CancelJob cancels a pending job. A running report cannot be interrupted.
func (q *JobQueue) CancelJob(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, err := q.store.GetJob(id)
	if err != nil {
		return err
	}
	if job.Status != JobStatusPending {
		return NewInvalidStateError(id, job.Status, "cancel")
	}

	job.Status = JobStatusCancelled
	now := q.now()
	job.CompletedAt = &now
	delete(q.live, id)
	if err := q.store.UpdateJob(job); err != nil {
		return err
	}
	if q.metrics != nil {
		q.metrics.JobsCancelled.Add(context.Background(), 1)
	}
	q.logger.Info("job cancelled", slog.String("job_id", id))
	return nil
}

// RemoveJob forgets a finished job. The report archive is left in place.
func (q *JobQueue) RemoveJob(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, err := q.store.GetJob(id)
	if err != nil {
		return err
	}
	if !job.Status.Finished() {
		return NewInvalidStateError(id, job.Status, "remove")
	}
	if err := q.store.DeleteJob(id); err != nil {
		return err
	}
	q.logger.Info("job removed",
		slog.String("job_id", id),
		slog.String("created", humanize.Time(job.CreatedAt)))
	return nil
}

// RunCleanup removes finished jobs older than retention every interval until
// ctx is done.
func (q *JobQueue) RunCleanup(ctx context.Context, interval, retention time.Duration) error {
	if interval <= 0 || retention <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			deleted, err := q.store.CleanupOldJobs(retention)
			if err != nil {
				q.logger.Error("job cleanup failed", slog.String("error", err.Error()))
				continue
			}
			if deleted > 0 {
				q.logger.Info("removed expired jobs",
					slog.Int("count", deleted),
					slog.Duration("retention", retention))
			}
		}
	}
}

// worker processes jobs from the queue
func (q *JobQueue) worker(ctx context.Context, workerID int) {
	defer q.wg.Done()

	logger := q.logger.With(slog.Int("worker_id", workerID))
	logger.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopped by context")
			return
		case <-q.shutdown:
			logger.Debug("worker stopped by shutdown")
			return
		case t := <-q.tasks:
			q.processJob(ctx, t, logger)
		}
	}
}

// start moves a pending job to running. Cancelled jobs are skipped.
func (q *JobQueue) start(t *task) (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, err := q.store.GetJob(t.id)
	if err != nil || job.Status != JobStatusPending {
		return nil, false
	}
	job.Status = JobStatusRunning
	now := q.now()
	job.StartedAt = &now
	if err := q.store.UpdateJob(job); err != nil {
		return nil, false
	}
	return job, true
}

// processJob executes a single job
func (q *JobQueue) processJob(ctx context.Context, t *task, logger *slog.Logger) {
	logger = logger.With(slog.String("job_id", t.id))

	job, ok := q.start(t)
	if !ok {
		logger.Debug("skipping job that is no longer pending")
		return
	}
	if traceID := job.Metadata[MetadataTraceID]; traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, traceID)
	}

	logger.InfoContext(ctx, "processing job started", slog.String("name", job.Name))
	infrastructure.RecordActiveJobChange(ctx, q.metrics, 1)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "job processing panicked", slog.Any("panic", r))
			q.finish(ctx, job, t, nil, fmt.Errorf("job processing panicked: %v", r), logger)
		}
		infrastructure.RecordActiveJobChange(ctx, q.metrics, -1)
	}()

	result, err := t.runner.Write(ctx, t.rows)
	q.finish(ctx, job, t, result, err, logger)
}

func (q *JobQueue) finish(ctx context.Context, job *Job, t *task, result *generator.Result, err error, logger *slog.Logger) {
	job.Progress = t.runner.Progress().Snapshot()
	completedAt := q.now()
	job.CompletedAt = &completedAt
	rows := 0
	if err != nil {
		job.Status = JobStatusFailed
		job.Error = err.Error()
		logger.ErrorContext(ctx, "job failed", slog.String("error", err.Error()))
	} else {
		job.Status = JobStatusCompleted
		job.Result = result
		if result != nil {
			rows = result.RowsWritten
		}
		logger.InfoContext(ctx, "processing job completed",
			slog.Int("rows_written", rows),
			slog.Duration("duration", completedAt.Sub(*job.StartedAt)))
	}

	q.mu.Lock()
	delete(q.live, job.ID)
	if uerr := q.store.UpdateJob(job); uerr != nil {
		logger.ErrorContext(ctx, "failed to update job", slog.String("error", uerr.Error()))
	}
	q.mu.Unlock()

	infrastructure.RecordJobMetrics(ctx, q.metrics, string(job.Status), completedAt.Sub(*job.StartedAt), rows)
}

// QueueStats describes the queue at a point in time.
type QueueStats struct {
	Workers  int `json:"workers"`
	Queued   int `json:"queued"`
	Capacity int `json:"capacity"`
	Live     int `json:"live"`
}

// GetQueueStats returns queue statistics
func (q *JobQueue) GetQueueStats() QueueStats {
	q.mu.RLock()
	live := len(q.live)
	q.mu.RUnlock()

	return QueueStats{
		Workers:  q.workers,
		Queued:   len(q.tasks),
		Capacity: cap(q.tasks),
		Live:     live,
	}
}
