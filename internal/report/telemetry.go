package report

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of the report engine.
const TracerName = "ertcli.report"

type engineMetrics struct {
	phaseDuration   metric.Float64Histogram
	rowsFiltered    metric.Int64Counter
	rowsMerged      metric.Int64Counter
	duplicateLabels metric.Int64Counter
	prunedLabels    metric.Int64Counter
	rowErrors       metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metrics     *engineMetrics
)

// instruments are created on first use so they bind to whatever meter
// provider the process installed. Instruments that fail to register stay nil
// and are skipped when recording.
func instruments() *engineMetrics {
	metricsOnce.Do(func() {
		m, err := newEngineMetrics(otel.Meter(TracerName))
		if err != nil {
			slog.Default().Warn("Failed to create report engine instruments",
				slog.String("error", err.Error()))
		}
		metrics = m
	})
	return metrics
}

func newEngineMetrics(meter metric.Meter) (*engineMetrics, error) {
	m := &engineMetrics{}
	var errs []error
	var err error
	if m.phaseDuration, err = meter.Float64Histogram("report_phase_duration_seconds",
		metric.WithDescription("Duration of each report assembly phase"),
		metric.WithUnit("s")); err != nil {
		m.phaseDuration = nil
		errs = append(errs, err)
	}
	counter := func(name, description string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(description))
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		return c
	}
	m.rowsFiltered = counter("report_rows_filtered_total",
		"Rows removed by column range filters")
	m.rowsMerged = counter("report_rows_merged_total",
		"Rows absorbed into another row by merging")
	m.duplicateLabels = counter("report_duplicate_columns_total",
		"Collision columns added to report headers")
	m.prunedLabels = counter("report_dataless_columns_total",
		"Header columns removed for having no data")
	m.rowErrors = counter("report_row_errors_total",
		"Rows skipped because they could not be written")
	return m, errors.Join(errs...)
}

// startPhase opens a span for one pipeline phase and returns a func that ends
// it, recording the phase duration and err.
func startPhase(ctx context.Context, phase string) (context.Context, func(err error)) {
	start := time.Now()
	ctx, span := otel.Tracer(TracerName).Start(ctx, "report."+phase,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("report.phase", phase)))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if m := instruments(); m.phaseDuration != nil {
			m.phaseDuration.Record(ctx, time.Since(start).Seconds(),
				metric.WithAttributes(attribute.String("phase", phase)))
		}
		span.End()
	}
}

func addCount(ctx context.Context, c metric.Int64Counter, n int) {
	if c == nil || n == 0 {
		return
	}
	c.Add(ctx, int64(n))
}

// RecordRowError counts a row skipped while writing.
func RecordRowError(ctx context.Context) {
	addCount(ctx, instruments().rowErrors, 1)
}
