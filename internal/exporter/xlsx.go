package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ReportSheet is the worksheet report rows are written to.
const ReportSheet = "Report"

// XLSXWriter streams report rows into a single worksheet.
type XLSXWriter struct {
	path   string
	file   *excelize.File
	stream *excelize.StreamWriter
	row    int
}

// CreateXLSXWriter starts a workbook that is saved to filePath on Close.
func CreateXLSXWriter(filePath string) (*XLSXWriter, error) {
	slog.Debug("Creating XLSX stream writer", slog.String("file_path", filePath))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ReportSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(ReportSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create stream writer: %w", err)
	}
	return &XLSXWriter{path: filePath, file: f, stream: sw}, nil
}

// WriteHeader writes the header row.
func (x *XLSXWriter) WriteHeader(header []string) error {
	return x.WriteRecord(header)
}

// WriteRecord appends one row. Values longer than a worksheet cell allows are
// rejected with ErrInvalidRecord.
func (x *XLSXWriter) WriteRecord(record []string) error {
	values := make([]interface{}, len(record))
	for i, v := range record {
		if utf8.RuneCountInString(v) > excelize.TotalCellChars {
			return fmt.Errorf("%w: column %d exceeds %d characters", ErrInvalidRecord, i+1, excelize.TotalCellChars)
		}
		values[i] = v
	}
	cell, err := excelize.CoordinatesToCellName(1, x.row+1)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := x.stream.SetRow(cell, values); err != nil {
		return err
	}
	x.row++
	return nil
}

// Path returns the workbook path.
func (x *XLSXWriter) Path() string { return x.path }

// Close flushes the sheet and saves the workbook.
func (x *XLSXWriter) Close() error {
	defer x.file.Close()
	if err := x.stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := x.file.SaveAs(x.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
