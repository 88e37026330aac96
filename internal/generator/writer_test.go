package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ertcli/internal/exporter"
	"ertcli/internal/report"
	"ertcli/internal/settings"
	"ertcli/internal/shared/testutil"
)

var fixedTime = time.Date(2024, 3, 9, 14, 5, 59, 0, time.UTC)

func testConfig(dir string) *report.Configuration {
	cfg := report.NewConfiguration("report.csv",
		report.TimeColumn.Clone(), report.UserIDColumn.Clone(), report.ContentColumn.Clone())
	cfg.MergeBy = report.UserIDColumn
	cfg.SortBy = report.TimeColumn
	cfg.OutputDir = dir
	cfg.UserName = "alice"
	return cfg
}

func testRows() []*report.Row {
	r1 := report.NewRow()
	r1.Set(report.TimeColumn, "1.0")
	r1.Set(report.UserIDColumn, "5")
	r1.Set(report.ContentColumn, "A")
	r2 := report.NewRow()
	r2.Set(report.TimeColumn, "2.0")
	r2.Set(report.UserIDColumn, "5")
	r2.Set(report.ContentColumn, "B")
	r3 := report.NewRow()
	r3.Set(report.TimeColumn, "3.0")
	r3.Set(report.UserIDColumn, "6")
	r3.Set(report.ContentColumn, "C")
	return []*report.Row{r1, r2, r3}
}

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(b)
	}
	return out
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestReportWriter_Write(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	w, err := NewReportWriter(cfg, WithClock(func() time.Time { return fixedTime }))
	require.NoError(t, err)

	require.NoError(t, w.WriteTest(context.Background()))
	result, err := w.Write(context.Background(), testRows())
	require.NoError(t, err)

	assert.Equal(t, "GIFT.Report.2024-03-09_14-05-59-alice.zip", result.ArchiveName)
	assert.Equal(t, 2, result.RowsWritten)
	assert.Zero(t, result.RowsSkipped)
	assert.True(t, result.CreatedDuplicateColumns)
	assert.Contains(t, result.Details, "(#)")
	assert.Equal(t, []string{"Time", "User_ID", "Content", "Content(2)"}, result.Header)

	contents := readArchive(t, result.ArchivePath)
	require.Contains(t, contents, "report.csv")
	require.Contains(t, contents, settings.FileName)
	// the merged row lost its time cells so it sorts after the timed row
	assert.Equal(t, "Time,User_ID,Content,Content(2)\r\n3.0,6,C,\r\n,5,A,B\r\n", contents["report.csv"])

	// only the archive is left behind
	assert.Equal(t, []string{result.ArchiveName}, dirEntries(t, dir))

	snap := w.Progress().Snapshot()
	assert.True(t, snap.Finished)
	assert.Equal(t, 100, snap.Percent)
	assert.Equal(t, result.Details, snap.Details)
}

func TestReportWriter_WriteTestCreatesHeaderOnlyFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewReportWriter(testConfig(dir))
	require.NoError(t, err)
	require.NoError(t, w.WriteTest(context.Background()))

	content, err := os.ReadFile(filepath.Join(w.reportDir, "report.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Time,User_ID,Content\r\n", string(content))
}

func TestReportWriter_XLSX(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.FileName = "report.xlsx"
	w, err := NewReportWriter(cfg)
	require.NoError(t, err)

	result, err := w.Write(context.Background(), testRows())
	require.NoError(t, err)
	assert.Contains(t, readArchive(t, result.ArchivePath), "report.xlsx")
}

func TestReportWriter_InvalidConfiguration(t *testing.T) {
	_, err := NewReportWriter(report.NewConfiguration(""))
	require.Error(t, err)
	assert.Equal(t, report.ErrorTypeConfiguration, report.TypeOf(err))
}

type failingWriter struct {
	exporter.RecordWriter
	rejectValue string
	failValue   string
}

func (f *failingWriter) WriteRecord(record []string) error {
	for _, v := range record {
		switch {
		case v == "":
		case v == f.rejectValue:
			return fmt.Errorf("%w: too long", exporter.ErrInvalidRecord)
		case v == f.failValue:
			return errors.New("disk full")
		}
	}
	return f.RecordWriter.WriteRecord(record)
}

func factoryWith(reject, fail string) RecordWriterFactory {
	return func(format exporter.Format, path string, options exporter.WriteOptions) (exporter.RecordWriter, error) {
		rw, err := exporter.NewRecordWriter(format, path, options)
		if err != nil {
			return nil, err
		}
		return &failingWriter{RecordWriter: rw, rejectValue: reject, failValue: fail}, nil
	}
}

func TestReportWriter_RecoverableRowSkipped(t *testing.T) {
	dir := t.TempDir()
	logger, handler := testutil.NewTestLogger(t)
	w, err := NewReportWriter(testConfig(dir),
		WithLogger(logger),
		WithRecordWriterFactory(factoryWith("C", "")))
	require.NoError(t, err)

	result, err := w.Write(context.Background(), testRows())
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsWritten)
	assert.Equal(t, 1, result.RowsSkipped)
	assert.True(t, handler.ContainsMessage("continuing report creation"))
	assert.NotEmpty(t, handler.GetRecordsByLevel(slog.LevelError))
	assert.FileExists(t, result.ArchivePath)
}

func TestReportWriter_FatalWriteLeavesNoArchive(t *testing.T) {
	dir := t.TempDir()
	w, err := NewReportWriter(testConfig(dir), WithRecordWriterFactory(factoryWith("", "C")))
	require.NoError(t, err)

	result, err := w.Write(context.Background(), testRows())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, report.ErrorTypeFatalWrite, report.TypeOf(err))
	assert.Empty(t, dirEntries(t, dir))

	snap := w.Progress().Snapshot()
	assert.True(t, snap.Finished)
	assert.NotEmpty(t, snap.Error())
}

func TestReportWriter_ArchiveFailureStopsShortOfComplete(t *testing.T) {
	dir := t.TempDir()
	archive := "GIFT.Report.2024-03-09_14-05-59-alice.zip"
	require.NoError(t, os.Mkdir(filepath.Join(dir, archive), 0755))
	w, err := NewReportWriter(testConfig(dir), WithClock(func() time.Time { return fixedTime }))
	require.NoError(t, err)

	result, err := w.Write(context.Background(), testRows())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, report.ErrorTypeFatalWrite, report.TypeOf(err))
	assert.Equal(t, []string{archive}, dirEntries(t, dir))

	snap := w.Progress().Snapshot()
	assert.True(t, snap.Finished)
	assert.Equal(t, report.PhasePackage, snap.Phase)
	assert.Equal(t, report.PackagePercent, snap.Percent)
	assert.NotEmpty(t, snap.Error())
}

func TestReportWriter_UnsupportedFilterFails(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.ColumnProperties[report.TimeColumn.Name] = &report.TimeWindowProperty{}
	w, err := NewReportWriter(cfg)
	require.NoError(t, err)

	_, err = w.Write(context.Background(), testRows())
	assert.Equal(t, report.ErrorTypeUnsupportedFilter, report.TypeOf(err))
	assert.Empty(t, dirEntries(t, dir))
}

func TestReportWriter_EmptyHeader(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	for _, c := range cfg.ReportColumns {
		c.Enabled = false
	}
	cfg.MergeBy = nil
	logger, handler := testutil.NewTestLogger(t)
	w, err := NewReportWriter(cfg, WithLogger(logger))
	require.NoError(t, err)

	result, err := w.Write(context.Background(), testRows())
	require.NoError(t, err)
	assert.Zero(t, result.RowsWritten)
	assert.True(t, handler.ContainsMessage("no columns to print"))
	assert.Equal(t, "", readArchive(t, result.ArchivePath)["report.csv"])
}
