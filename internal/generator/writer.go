package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ertcli/internal/exporter"
	"ertcli/internal/files"
	"ertcli/internal/report"
	"ertcli/internal/settings"
)

// DefaultOutputDir is used when the configuration names no output directory.
const DefaultOutputDir = "output"

// RecordWriterFactory opens the data file of a report.
type RecordWriterFactory func(format exporter.Format, path string, options exporter.WriteOptions) (exporter.RecordWriter, error)

// Option configures a ReportWriter.
type Option func(*ReportWriter)

// WithClassifier replaces the default column classifier.
func WithClassifier(c report.Classifier) Option {
	return func(w *ReportWriter) { w.classifier = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *ReportWriter) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithProgress publishes progress to status.
func WithProgress(status *report.ProgressStatus) Option {
	return func(w *ReportWriter) {
		if status != nil {
			w.progress = status
		}
	}
}

// WithFormat selects the data file format.
func WithFormat(f exporter.Format) Option {
	return func(w *ReportWriter) { w.format = f }
}

// WithWriteOptions sets CSV encoding options.
func WithWriteOptions(o exporter.WriteOptions) Option {
	return func(w *ReportWriter) { w.writeOptions = o }
}

// WithWriteHeader controls whether the header line is written.
func WithWriteHeader(b bool) Option {
	return func(w *ReportWriter) { w.writeHeader = b }
}

// WithClock replaces time.Now for archive names.
func WithClock(now func() time.Time) Option {
	return func(w *ReportWriter) { w.now = now }
}

// WithRecordWriterFactory replaces how the data file is opened.
func WithRecordWriterFactory(f RecordWriterFactory) Option {
	return func(w *ReportWriter) { w.newRecordWriter = f }
}

// Result describes a finished report.
type Result struct {
	ArchivePath             string   `json:"archive_path"`
	ArchiveName             string   `json:"archive_name"`
	Header                  []string `json:"header"`
	RowsWritten             int      `json:"rows_written"`
	RowsSkipped             int      `json:"rows_skipped"`
	CreatedDuplicateColumns bool     `json:"created_duplicate_columns"`
	Details                 string   `json:"details,omitempty"`
}

// ReportWriter turns a configuration and rows into a report archive.
type ReportWriter struct {
	cfg             *report.Configuration
	classifier      report.Classifier
	logger          *slog.Logger
	progress        *report.ProgressStatus
	format          exporter.Format
	writeOptions    exporter.WriteOptions
	writeHeader     bool
	now             func() time.Time
	newRecordWriter RecordWriterFactory
	files           *files.Manager
	reportDir       string
}

// NewReportWriter validates cfg and returns a writer for it.
func NewReportWriter(cfg *report.Configuration, opts ...Option) (*ReportWriter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &ReportWriter{
		cfg:             cfg,
		classifier:      report.DefaultClassifier(),
		logger:          slog.Default(),
		progress:        report.NewProgressStatus(),
		format:          exporter.FormatFromFileName(cfg.FileName),
		writeOptions:    exporter.WriteOptions{CRLF: true},
		writeHeader:     true,
		now:             time.Now,
		newRecordWriter: exporter.NewRecordWriter,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(slog.String("component", "report_writer"), slog.String("file", cfg.FileName))
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	w.files = files.NewManager(outputDir, w.logger)
	return w, nil
}

// Progress returns the status this writer publishes to.
func (w *ReportWriter) Progress() *report.ProgressStatus { return w.progress }

// WriteTest checks the report file can be created by writing its header
// before any events are gathered.
func (w *ReportWriter) WriteTest(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting to perform a test write to report file")
	w.progress.Advance(report.PhaseTest, 0)

	dir, err := w.ensureReportDir()
	if err != nil {
		return report.NewFatalWriteError(report.PhaseTest, err)
	}
	header := report.HeaderFromColumns(w.cfg.ReportColumns).Labels()
	path := filepath.Join(dir, w.cfg.FileName)
	if w.format == exporter.FormatXLSX {
		rw, err := w.newRecordWriter(w.format, path, w.writeOptions)
		if err == nil {
			err = rw.WriteHeader(header)
			if cerr := rw.Close(); err == nil {
				err = cerr
			}
		}
		if err != nil {
			return report.NewFatalWriteError(report.PhaseTest, err)
		}
		return nil
	}
	opts := w.writeOptions
	opts.Headers = header
	if err := exporter.NewCSVWriter(dir).WriteCSV(w.cfg.FileName, opts); err != nil {
		return report.NewFatalWriteError(report.PhaseTest, err)
	}
	return nil
}

// Write runs the full pipeline over rows and packages the result. Fatal
// errors leave no archive; rows that cannot be written are logged and
// skipped.
func (w *ReportWriter) Write(ctx context.Context, rows []*report.Row) (result *Result, err error) {
	ctx, span := otel.Tracer(report.TracerName).Start(ctx, "report.write",
		trace.WithAttributes(
			attribute.String("report.file", w.cfg.FileName),
			attribute.String("report.format", string(w.format)),
			attribute.Int("report.input_rows", len(rows))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			w.progress.Fail(err)
		}
		span.End()
	}()

	w.logger.InfoContext(ctx, "Starting to create report file", slog.Int("rows", len(rows)))
	w.progress.Reset(report.PhaseInit)

	dir, err := w.ensureReportDir()
	if err != nil {
		return nil, report.NewFatalWriteError(report.PhaseInit, err)
	}

	table, err := report.Assemble(ctx, w.cfg, rows, report.Options{
		Classifier: w.classifier,
		Progress:   w.progress,
		Logger:     w.logger,
	})
	if err != nil {
		w.cleanup(ctx)
		return nil, err
	}

	result = &Result{
		Header:                  table.Header.Labels(),
		CreatedDuplicateColumns: table.CreatedDuplicates(),
	}
	dataPath := filepath.Join(dir, w.cfg.FileName)
	if err := w.writeTable(ctx, table, dataPath, result); err != nil {
		w.cleanup(ctx)
		return nil, err
	}

	w.progress.Advance(report.PhasePackage, report.PackagePercent)
	sidecar := filepath.Join(dir, settings.FileName)
	if err := settings.Save(sidecar, w.cfg); err != nil {
		w.cleanup(ctx)
		return nil, report.NewFatalWriteError(report.PhasePackage, err)
	}

	result.ArchiveName = files.ArchiveName(w.now(), w.cfg.UserName)
	result.ArchivePath = filepath.Join(w.files.BaseDir(), result.ArchiveName)
	if err := w.files.Archive(result.ArchiveName, dataPath, sidecar); err != nil {
		w.cleanup(ctx)
		return nil, report.NewFatalWriteError(report.PhasePackage, err)
	}
	w.cleanup(ctx)

	result.Details = table.FinishedDetails()
	w.progress.Finish(result.Details)
	w.logger.InfoContext(ctx, "Finished report file",
		slog.String("archive", result.ArchivePath),
		slog.Int("rows_written", result.RowsWritten),
		slog.Int("rows_skipped", result.RowsSkipped),
		slog.Bool("duplicate_columns", result.CreatedDuplicateColumns))
	return result, nil
}

func (w *ReportWriter) writeTable(ctx context.Context, table *report.Table, path string, result *Result) error {
	rw, err := w.newRecordWriter(w.format, path, w.writeOptions)
	if err != nil {
		return report.NewFatalWriteError(report.PhaseWrite, err)
	}
	closed := false
	defer func() {
		if !closed {
			rw.Close()
		}
	}()

	w.progress.Advance(report.PhaseWrite, report.WritePercent(0, len(table.Rows)))

	if table.Header.Len() == 0 {
		w.logger.WarnContext(ctx, "There are no columns to print based on the report settings")
	} else {
		if w.writeHeader {
			if err := rw.WriteHeader(table.Header.Labels()); err != nil {
				return report.NewFatalWriteError(report.PhaseWrite, err)
			}
		}
		for i, row := range table.Rows {
			if err := w.writeRow(ctx, rw, table, i, row); err != nil {
				if report.IsFatal(err) {
					w.logger.ErrorContext(ctx, "Failed to write report row, terminating report creation",
						slog.Int("row", i), slog.String("error", err.Error()))
					return err
				}
				result.RowsSkipped++
				report.RecordRowError(ctx)
				w.logger.ErrorContext(ctx, "Failed to write report row, continuing report creation",
					slog.Int("row", i), slog.String("error", err.Error()))
			} else {
				result.RowsWritten++
			}
			w.progress.SetPercent(report.WritePercent(i+1, len(table.Rows)))
		}
	}

	closed = true
	if err := rw.Close(); err != nil {
		return report.NewFatalWriteError(report.PhaseWrite, err)
	}
	return nil
}

func (w *ReportWriter) writeRow(ctx context.Context, rw exporter.RecordWriter, table *report.Table, i int, row *report.Row) error {
	record, err := table.Record(i, row)
	if err != nil {
		return err
	}
	if err := rw.WriteRecord(record); err != nil {
		if errors.Is(err, exporter.ErrInvalidRecord) {
			return report.NewRecoverableRowError(i, "record rejected by output format", err)
		}
		return report.NewFatalWriteError(report.PhaseWrite, fmt.Errorf("row %d: %w", i, err))
	}
	return nil
}

func (w *ReportWriter) ensureReportDir() (string, error) {
	if w.reportDir != "" {
		return w.reportDir, nil
	}
	dir, err := w.files.CreateReportDirectory()
	if err != nil {
		return "", err
	}
	w.reportDir = dir
	return dir, nil
}

// cleanup removes the working directory. Failures are logged only.
func (w *ReportWriter) cleanup(ctx context.Context) {
	if w.reportDir == "" {
		return
	}
	if err := w.files.DeleteDirectory(w.reportDir); err != nil {
		w.logger.ErrorContext(ctx, "Failed to delete report directory",
			slog.String("dir", w.reportDir), slog.String("error", err.Error()))
	}
	w.reportDir = ""
}
