package eventsource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"ertcli/internal/files"
	"ertcli/internal/report"
)

// DefaultMaxLineBytes bounds one JSONL line.
const DefaultMaxLineBytes = 4 << 20

// Event is one normalized event: its type and its values keyed by column name.
type Event struct {
	Type   string
	Values map[string]string
}

type jsonEvent struct {
	EventType string                 `json:"event_type"`
	Values    map[string]interface{} `json:"values"`
}

// Loader reads normalized events from JSONL and XLSX files.
type Loader struct {
	catalog      *Catalog
	logger       *slog.Logger
	maxLineBytes int
}

// NewLoader returns a loader that records what it reads in catalog.
func NewLoader(catalog *Catalog, logger *slog.Logger) *Loader {
	if catalog == nil {
		catalog = NewCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		catalog:      catalog,
		logger:       logger.With(slog.String("component", "eventsource")),
		maxLineBytes: DefaultMaxLineBytes,
	}
}

// Catalog returns the loader's catalog.
func (l *Loader) Catalog() *Catalog { return l.catalog }

// LoadFile reads path according to its extension.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]Event, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open event file: %w", err)
		}
		defer f.Close()
		events, err := l.ReadJSONL(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		return events, nil
	case ".xlsx":
		return l.ReadXLSX(ctx, path)
	}
	return nil, fmt.Errorf("unsupported event file %s", filepath.Base(path))
}

// LoadDir reads every event file in dir, oldest first.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]Event, error) {
	found, err := files.NewDiscovery(dir).FindEventFiles("")
	if err != nil {
		return nil, err
	}
	var events []Event
	for _, f := range found {
		loaded, err := l.LoadFile(ctx, f.Path)
		if err != nil {
			return nil, err
		}
		events = append(events, loaded...)
	}
	l.logger.InfoContext(ctx, "Loaded event files",
		slog.String("dir", dir),
		slog.Int("files", len(found)),
		slog.Int("events", len(events)))
	return events, nil
}

// ReadJSONL reads one JSON event per line. Blank lines are skipped; a
// malformed line fails the whole read.
func (l *Loader) ReadJSONL(ctx context.Context, r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), l.maxLineBytes)

	var events []Event
	line := 0
	for scanner.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var je jsonEvent
		if err := dec.Decode(&je); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ev := Event{Type: je.EventType, Values: make(map[string]string, len(je.Values))}
		for k, v := range je.Values {
			if s, ok := stringValue(v); ok {
				ev.Values[k] = s
			}
		}
		if err := l.observe(ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	l.logger.DebugContext(ctx, "Read JSONL events", slog.Int("lines", line), slog.Int("events", len(events)))
	return events, nil
}

// ReadXLSX reads events from the first worksheet. The first row names the
// columns; an event_type column, when present, gives each row's type.
func (l *Loader) ReadXLSX(ctx context.Context, path string) ([]Event, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no worksheets", filepath.Base(path))
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	var header []string
	var events []Event
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if header == nil {
			header = make([]string, len(cols))
			for i, c := range cols {
				header[i] = strings.TrimSpace(c)
			}
			continue
		}
		ev := Event{Values: make(map[string]string, len(cols))}
		for i, v := range cols {
			if i >= len(header) || header[i] == "" || v == "" {
				continue
			}
			if header[i] == report.EventTypeColumn.Name {
				ev.Type = v
			}
			ev.Values[header[i]] = v
		}
		if len(ev.Values) == 0 {
			continue
		}
		if err := l.observe(ev); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	l.logger.InfoContext(ctx, "Read XLSX events",
		slog.String("file", filepath.Base(path)),
		slog.String("sheet", sheets[0]),
		slog.Int("events", len(events)))
	return events, nil
}

func (l *Loader) observe(ev Event) error {
	l.catalog.ObserveEventType(ev.Type)
	for name := range ev.Values {
		if _, err := l.catalog.Column(name); err != nil {
			return err
		}
	}
	return nil
}

func stringValue(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}
