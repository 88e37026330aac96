package api

import "time"

// ProgressResponse is a point-in-time view of report progress.
type ProgressResponse struct {
	Phase       string `json:"phase"`
	Percent     int    `json:"percent"`
	Description string `json:"description,omitempty"`
	Finished    bool   `json:"finished"`
	Failed      bool   `json:"failed"`
	Details     string `json:"details,omitempty"`
}

// ReportResult describes a finished report archive.
type ReportResult struct {
	ArchiveName             string   `json:"archive_name"`
	Header                  []string `json:"header"`
	RowsWritten             int      `json:"rows_written"`
	RowsSkipped             int      `json:"rows_skipped"`
	CreatedDuplicateColumns bool     `json:"created_duplicate_columns"`
	Details                 string   `json:"details,omitempty"`
}

// JobResponse is the state of one report job.
type JobResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Status      string            `json:"status"`
	Progress    ProgressResponse  `json:"progress"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Result      *ReportResult     `json:"result,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// JobListResponse lists report jobs, newest first.
type JobListResponse struct {
	Jobs  []JobResponse `json:"jobs"`
	Total int           `json:"total"`
}

// SettingsListResponse lists saved settings names.
type SettingsListResponse struct {
	Settings []string `json:"settings"`
}

// SettingsResponse is one saved configuration.
type SettingsResponse struct {
	Name          string            `json:"name"`
	Configuration ConfigurationSpec `json:"configuration"`
}

// HealthResponse reports service health.
type HealthResponse struct {
	Status    string         `json:"status"`
	Version   string         `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	Uptime    string         `json:"uptime"`
	Queue     QueueResponse  `json:"queue"`
	Jobs      map[string]int `json:"jobs"`
}

// QueueResponse describes the report job queue.
type QueueResponse struct {
	Workers  int `json:"workers"`
	Queued   int `json:"queued"`
	Capacity int `json:"capacity"`
	Live     int `json:"live"`
}
