package exporter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidRecord marks a record the output format cannot hold. The file is
// still usable after it; callers may skip the record and continue.
var ErrInvalidRecord = errors.New("invalid record")

// Format is a report file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported report format %q", s)
}

// FormatFromFileName infers the format from the file extension.
func FormatFromFileName(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// RecordWriter writes a header and records to one report file.
type RecordWriter interface {
	WriteHeader(header []string) error
	WriteRecord(record []string) error
	Path() string
	Close() error
}

// NewRecordWriter opens a writer for format at path.
func NewRecordWriter(format Format, path string, options WriteOptions) (RecordWriter, error) {
	switch format {
	case FormatXLSX:
		return CreateXLSXWriter(path)
	case FormatCSV, "":
		return NewCSVWriter("").CreateStreamWriter(path, options)
	}
	return nil, fmt.Errorf("unsupported report format %q", format)
}
