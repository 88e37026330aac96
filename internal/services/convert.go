package services

import (
	"ertcli/internal/operations"
	"ertcli/internal/report"
	api "ertcli/pkg/contracts/api/v1"
)

// JobResponse renders a job for the API. The archive location on disk is not
// exposed.
func JobResponse(job *operations.Job) api.JobResponse {
	resp := api.JobResponse{
		ID:          job.ID,
		Name:        job.Name,
		Status:      string(job.Status),
		Progress:    ProgressResponse(job.Progress),
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		Metadata:    job.Metadata,
	}
	if r := job.Result; r != nil {
		resp.Result = &api.ReportResult{
			ArchiveName:             r.ArchiveName,
			Header:                  r.Header,
			RowsWritten:             r.RowsWritten,
			RowsSkipped:             r.RowsSkipped,
			CreatedDuplicateColumns: r.CreatedDuplicateColumns,
			Details:                 r.Details,
		}
	}
	return resp
}

// JobListResponse renders a job list.
func JobListResponse(jobs []*operations.Job) api.JobListResponse {
	out := api.JobListResponse{Jobs: make([]api.JobResponse, 0, len(jobs)), Total: len(jobs)}
	for _, job := range jobs {
		out.Jobs = append(out.Jobs, JobResponse(job))
	}
	return out
}

// ProgressResponse renders a progress snapshot.
func ProgressResponse(p report.Progress) api.ProgressResponse {
	return api.ProgressResponse{
		Phase:       p.Phase,
		Percent:     p.Percent,
		Description: p.Description,
		Finished:    p.Finished,
		Failed:      p.Err != nil,
		Details:     p.Details,
	}
}
