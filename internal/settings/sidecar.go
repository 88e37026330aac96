package settings

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/magiconair/properties"

	"ertcli/internal/report"
)

// FileName is the sidecar written next to every report.
const FileName = "ReportProperties.settings"

const headerComment = "This file contains ERT report settings."

// Sidecar keys.
const (
	KeyEventColumns             = "eventColumns"
	KeyReportColumns            = "reportColumns"
	KeyExcludeDatalessColumns   = "excludeDatalessColumns"
	KeyRelocateDuplicateColumns = "relocateDuplicateColumns"
	KeyMergeByColumn            = "mergeByColumn"
	KeySortByColumn             = "sortByColumn"
	KeyEmptyCellValue           = "emptyCellValue"
	KeyReportFileName           = "reportFileName"
)

// Encode writes cfg as a properties document whose column values are JSON.
func Encode(w io.Writer, cfg *report.Configuration) error {
	p := properties.NewProperties()
	p.DisableExpansion = true

	reportCols, err := encodeColumns(cfg.ReportColumns)
	if err != nil {
		return report.NewPersistenceError("failed to encode report columns", err)
	}
	events, err := encodeEvents(cfg.EventTypes)
	if err != nil {
		return report.NewPersistenceError("failed to encode event columns", err)
	}

	set := func(key, value string) {
		if err == nil {
			_, _, err = p.Set(key, value)
		}
	}
	set(KeyReportColumns, reportCols)
	set(KeyEventColumns, events)
	set(KeyExcludeDatalessColumns, strconv.FormatBool(cfg.ExcludeDatalessColumns))
	set(KeyRelocateDuplicateColumns, strconv.FormatBool(cfg.RelocateDuplicateColumns))
	set(KeyReportFileName, cfg.FileName)
	optional := []struct {
		key string
		col *report.Column
	}{{KeyMergeByColumn, cfg.MergeBy}, {KeySortByColumn, cfg.SortBy}}
	for _, o := range optional {
		if o.col == nil {
			continue
		}
		doc, encErr := encodeColumn(o.col)
		if encErr != nil {
			return report.NewPersistenceError("failed to encode "+o.key, encErr)
		}
		raw, encErr := marshal(doc)
		if encErr != nil {
			return report.NewPersistenceError("failed to encode "+o.key, encErr)
		}
		set(o.key, raw)
	}
	set(KeyEmptyCellValue, cfg.EmptyCellValue)
	if err != nil {
		return report.NewPersistenceError("failed to set property", err)
	}

	if _, err := fmt.Fprintf(w, "#%s\n#%s\n", headerComment, time.Now().Format(time.UnixDate)); err != nil {
		return report.NewPersistenceError("failed to write settings", err)
	}
	if _, err := p.Write(w, properties.UTF8); err != nil {
		return report.NewPersistenceError("failed to write settings", err)
	}
	return nil
}

// Save writes the sidecar for cfg to path.
func Save(path string, cfg *report.Configuration) error {
	var buf bytes.Buffer
	if err := Encode(&buf, cfg); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return report.NewPersistenceError("failed to save settings", err)
	}
	return nil
}

// Decode reads a sidecar into cfg. Report columns and their properties are
// replaced by the saved ones. Known event types take the saved display
// settings when present and are disabled otherwise. cfg is unchanged when
// decoding fails.
func Decode(r io.Reader, cfg *report.Configuration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return report.NewPersistenceError("failed to read settings", err)
	}
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadBytes(buf)
	if err != nil {
		return report.NewPersistenceError("failed to parse settings", err)
	}

	next := cfg.Clone()

	raw, ok := p.Get(KeyReportColumns)
	if !ok {
		return report.NewPersistenceError("settings have no "+KeyReportColumns, nil)
	}
	cols, err := decodeColumns(raw)
	if err != nil {
		return report.NewPersistenceError("malformed "+KeyReportColumns, err)
	}
	next.ReportColumns = cols
	next.ColumnProperties = make(map[string]report.ColumnProperty)
	for _, c := range cols {
		if c.Properties == nil {
			continue
		}
		if _, dup := next.ColumnProperties[c.Name]; dup {
			return report.NewPersistenceError("the report columns have non-unique headers", nil).
				WithContext("column", c.Name)
		}
		next.ColumnProperties[c.Name] = c.Properties
	}

	var saved []*report.EventTypeDisplay
	if raw, ok := p.Get(KeyEventColumns); ok {
		if saved, err = decodeEvents(raw); err != nil {
			return report.NewPersistenceError("malformed "+KeyEventColumns, err)
		}
	}
	mergeEventTypes(next, saved, logger)

	next.EmptyCellValue = p.GetString(KeyEmptyCellValue, next.EmptyCellValue)
	next.FileName = p.GetString(KeyReportFileName, next.FileName)
	next.ExcludeDatalessColumns = decodeBool(p, KeyExcludeDatalessColumns, next.ExcludeDatalessColumns, logger)
	next.RelocateDuplicateColumns = decodeBool(p, KeyRelocateDuplicateColumns, next.RelocateDuplicateColumns, logger)
	if next.MergeBy, err = decodeOptionalColumn(p, KeyMergeByColumn, next.MergeBy); err != nil {
		return err
	}
	if next.SortBy, err = decodeOptionalColumn(p, KeySortByColumn, next.SortBy); err != nil {
		return err
	}

	*cfg = *next
	logger.Debug("Loaded report settings",
		slog.Int("report_columns", len(cfg.ReportColumns)),
		slog.Int("event_types", len(cfg.EventTypes)))
	return nil
}

// decodeBool reads key as a boolean. A malformed value reads as false.
func decodeBool(p *properties.Properties, key string, def bool, logger *slog.Logger) bool {
	v, ok := p.Get(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		logger.Debug("Malformed boolean setting, using false",
			slog.String("key", key),
			slog.String("value", v))
		return false
	}
	return b
}

// Load reads the sidecar at path into cfg.
func Load(path string, cfg *report.Configuration, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return report.NewPersistenceError("failed to open settings", err)
	}
	defer f.Close()
	return Decode(f, cfg, logger)
}

func decodeOptionalColumn(p *properties.Properties, key string, current *report.Column) (*report.Column, error) {
	raw, ok := p.Get(key)
	if !ok {
		return current, nil
	}
	var doc columnDoc
	if err := decodeJSON(raw, &doc); err != nil {
		return nil, report.NewPersistenceError("malformed "+key, err)
	}
	col, err := decodeColumn(doc)
	if err != nil {
		return nil, report.NewPersistenceError("malformed "+key, err)
	}
	return col, nil
}

func mergeEventTypes(cfg *report.Configuration, saved []*report.EventTypeDisplay, logger *slog.Logger) {
	updated := make(map[string]*report.EventTypeDisplay, len(saved))
	for _, s := range saved {
		if _, ok := cfg.EventType(s.EventType.Name); !ok {
			logger.Error("Unable to update display settings for unknown event type",
				slog.String("event_type", s.EventType.Name))
			continue
		}
		updated[s.EventType.Name] = s
	}
	for i, known := range cfg.EventTypes {
		if s, ok := updated[known.EventType.Name]; ok {
			s.EventType = known.EventType
			cfg.EventTypes[i] = s
			continue
		}
		known.Enabled = false
	}
}
