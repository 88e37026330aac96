package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ertcli/internal/config"
	apierrors "ertcli/internal/errors"
	"ertcli/internal/eventsource"
	"ertcli/internal/exporter"
	"ertcli/internal/generator"
	"ertcli/internal/operations"
	"ertcli/internal/report"
	"ertcli/internal/settings"
	api "ertcli/pkg/contracts/api/v1"
)

// PreparedReport is a validated report ready to run.
type PreparedReport struct {
	Name   string
	Config *report.Configuration
	Rows   []*report.Row
	Writer *generator.ReportWriter
}

// ReportService builds report runs from API requests and manages their jobs.
type ReportService struct {
	queue    *operations.JobQueue
	settings *settings.Store
	defaults config.ReportConfig
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewReportService creates a report service. queue may be nil for
// synchronous use through Prepare.
func NewReportService(queue *operations.JobQueue, store *settings.Store, defaults config.ReportConfig, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		queue:    queue,
		settings: store,
		defaults: defaults,
		logger:   logger.With(slog.String("service", "report")),
		tracer:   otel.Tracer("report-service"),
	}
}

// Prepare resolves the configuration, loads the events and creates the
// writer. Nothing is written yet.
func (s *ReportService) Prepare(ctx context.Context, req api.CreateReportRequest) (*PreparedReport, error) {
	ctx, span := s.tracer.Start(ctx, "report_service.prepare")
	defer span.End()

	cfg, err := settings.FromSpec(req.Configuration)
	if err != nil {
		return nil, err
	}
	if req.Settings != "" && s.settings == nil {
		return nil, apierrors.New(http.StatusBadRequest, "SETTINGS_UNAVAILABLE", "No settings directory is configured")
	}

	catalog := eventsource.NewCatalog()
	events, err := s.events(ctx, req, catalog)
	if err != nil {
		return nil, err
	}
	// Observed event types are known before saved settings are merged.
	catalog.Prepare(cfg)
	if req.Settings != "" {
		if err := s.settings.Load(req.Settings, cfg); err != nil {
			return nil, err
		}
	}
	s.applyDefaults(cfg)
	rows := eventsource.BuildRows(events, cfg)

	format := exporter.FormatFromFileName(cfg.FileName)
	if req.Format != "" {
		if format, err = exporter.ParseFormat(req.Format); err != nil {
			return nil, apierrors.InvalidRequestWithError(err)
		}
	}
	writer, err := generator.NewReportWriter(cfg,
		generator.WithLogger(s.logger),
		generator.WithFormat(format),
		generator.WithWriteHeader(s.defaults.WriteHeader),
		generator.WithWriteOptions(exporter.WriteOptions{BOMPrefix: s.defaults.UTF8BOM, CRLF: s.defaults.CRLF}))
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = cfg.FileName
	}
	span.SetAttributes(
		attribute.String("report.name", name),
		attribute.Int("report.events", len(events)),
		attribute.Int("report.rows", len(rows)))
	s.logger.InfoContext(ctx, "Prepared report",
		slog.String("name", name),
		slog.Int("events", len(events)),
		slog.Int("rows", len(rows)))
	return &PreparedReport{Name: name, Config: cfg, Rows: rows, Writer: writer}, nil
}

// Submit prepares the report, checks the output can be written and queues
// it. The returned job is pending.
func (s *ReportService) Submit(ctx context.Context, req api.CreateReportRequest) (*operations.Job, error) {
	prepared, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := prepared.Writer.WriteTest(ctx); err != nil {
		return nil, err
	}
	job := &operations.Job{
		Name:     prepared.Name,
		Metadata: map[string]string{"file_name": prepared.Config.FileName},
	}
	if err := s.queue.Enqueue(ctx, job, prepared.Writer, prepared.Rows); err != nil {
		return nil, err
	}
	return job, nil
}

// Get returns one job.
func (s *ReportService) Get(id string) (*operations.Job, error) {
	return s.queue.GetJob(id)
}

// List returns jobs, newest first.
func (s *ReportService) List(req api.ReportListRequest) ([]*operations.Job, error) {
	return s.queue.ListJobs(operations.JobFilter{
		Status: operations.JobStatus(req.Status),
		Limit:  req.Limit,
	})
}

// Delete cancels a pending job or forgets a finished one. Running jobs
// cannot be deleted.
func (s *ReportService) Delete(id string) error {
	job, err := s.queue.GetJob(id)
	if err != nil {
		return err
	}
	if job.Status == operations.JobStatusPending {
		return s.queue.CancelJob(id)
	}
	return s.queue.RemoveJob(id)
}

// Archive returns the archive path of a completed job.
func (s *ReportService) Archive(id string) (string, error) {
	job, err := s.queue.GetJob(id)
	if err != nil {
		return "", err
	}
	if job.Status != operations.JobStatusCompleted || job.Result == nil {
		return "", operations.NewInvalidStateError(id, job.Status, "download")
	}
	if _, err := os.Stat(job.Result.ArchivePath); err != nil {
		if os.IsNotExist(err) {
			return "", apierrors.NotFoundError("report archive")
		}
		return "", apierrors.FileSystemError("archive lookup", err)
	}
	return job.Result.ArchivePath, nil
}

// QueueStats returns the job queue statistics.
func (s *ReportService) QueueStats() operations.QueueStats {
	return s.queue.GetQueueStats()
}

func (s *ReportService) applyDefaults(cfg *report.Configuration) {
	cfg.OutputDir = s.defaults.OutputDir
	if cfg.UserName == "" {
		cfg.UserName = s.defaults.UserName
	}
	if cfg.EmptyCellValue == "" {
		cfg.EmptyCellValue = s.defaults.EmptyCellValue
	}
}

func (s *ReportService) events(ctx context.Context, req api.CreateReportRequest, catalog *eventsource.Catalog) ([]eventsource.Event, error) {
	if len(req.Events) > 0 {
		events := make([]eventsource.Event, 0, len(req.Events))
		for _, rec := range req.Events {
			catalog.ObserveEventType(rec.EventType)
			events = append(events, eventsource.Event{Type: rec.EventType, Values: rec.Values})
		}
		return events, nil
	}

	path, err := s.resolveEventsPath(req.EventsPath)
	if err != nil {
		return nil, err
	}
	return LoadEvents(ctx, path, catalog, s.logger)
}

// resolveEventsPath keeps request paths inside the events directory.
func (s *ReportService) resolveEventsPath(p string) (string, error) {
	if !filepath.IsLocal(p) {
		return "", apierrors.New(http.StatusBadRequest, "INVALID_EVENTS_PATH",
			fmt.Sprintf("events path %q must be relative to the events directory", p))
	}
	return filepath.Join(s.defaults.EventsDir, p), nil
}

// LoadEvents reads events from a file or from every event file in a
// directory.
func LoadEvents(ctx context.Context, path string, catalog *eventsource.Catalog, logger *slog.Logger) ([]eventsource.Event, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, report.NewPersistenceError(fmt.Sprintf("events %q not found", filepath.Base(path)), err).
			WithContext("not_found", true)
	}
	loader := eventsource.NewLoader(catalog, logger)
	var events []eventsource.Event
	if info.IsDir() {
		events, err = loader.LoadDir(ctx, path)
	} else {
		events, err = loader.LoadFile(ctx, path)
	}
	if err != nil {
		return nil, report.NewPersistenceError("failed to load events", err)
	}
	return events, nil
}
