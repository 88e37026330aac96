package operations

import (
	"context"
	"time"

	"ertcli/internal/generator"
	"ertcli/internal/report"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Finished reports whether the status is terminal.
func (s JobStatus) Finished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Runner produces one report and publishes its progress.
// *generator.ReportWriter is the production implementation.
type Runner interface {
	Progress() *report.ProgressStatus
	Write(ctx context.Context, rows []*report.Row) (*generator.Result, error)
}

// Job represents an async report generation
type Job struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Status      JobStatus         `json:"status"`
	Progress    report.Progress   `json:"progress"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Result      *generator.Result `json:"result,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// JobStore interface for job persistence
type JobStore interface {
	CreateJob(job *Job) error
	GetJob(id string) (*Job, error)
	UpdateJob(job *Job) error
	ListJobs(filter JobFilter) ([]*Job, error)
	DeleteJob(id string) error
	CleanupOldJobs(olderThan time.Duration) (int, error)
}

// JobFilter for querying jobs
type JobFilter struct {
	Status JobStatus
	Since  time.Time
	Limit  int
}
