// Package services implements the business logic between the HTTP handlers
// and the report engine.
//
// ReportService turns API requests into report runs: it resolves the
// configuration (inline, optionally overlaid with a saved settings file),
// loads events from the request or the events directory, performs the
// pre-flight write test and hands the writer to the job queue.
// HealthService summarizes the queue for health checks.
//
// Services receive their dependencies through constructors and log through
// an injected *slog.Logger.
package services
