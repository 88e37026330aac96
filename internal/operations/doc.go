// Package operations runs report generation in the background.
//
// JobQueue accepts report jobs, runs them on a fixed pool of workers and
// keeps their state in a JobStore. While a job is queued or running its
// progress is read live from the runner's report.ProgressStatus; once it
// finishes the final snapshot is stored with the job.
//
// RunBatch writes one report per group of rows with bounded concurrency,
// which is how per-user or per-session reports are produced from one
// configuration.
//
// Example usage:
//
//	queue := operations.NewJobQueue(2, 16, operations.NewMemoryJobStore(), logger)
//	queue.Start(ctx)
//	defer queue.Stop(30 * time.Second)
//
//	w, _ := generator.NewReportWriter(cfg)
//	job := &operations.Job{Name: cfg.FileName}
//	if err := queue.Enqueue(ctx, job, w, rows); err != nil {
//		return err
//	}
package operations
