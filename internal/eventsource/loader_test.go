package eventsource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ertcli/internal/report"
)

const sampleJSONL = `{"event_type":"lesson","values":{"user_id":5,"time":"1.0","content":"A"}}

{"event_type":"lesson","values":{"user_id":5,"time":"2.0","content":"B","score":92.5}}
{"event_type":"survey","values":{"user_id":6,"answer":true,"skip":null}}
`

func TestReadJSONL(t *testing.T) {
	l := NewLoader(nil, nil)
	events, err := l.ReadJSONL(context.Background(), strings.NewReader(sampleJSONL))
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "lesson", events[0].Type)
	assert.Equal(t, map[string]string{"user_id": "5", "time": "1.0", "content": "A"}, events[0].Values)
	assert.Equal(t, "92.5", events[1].Values["score"])
	assert.Equal(t, "true", events[2].Values["answer"])
	_, hasSkip := events[2].Values["skip"]
	assert.False(t, hasSkip)

	var typeNames []string
	for _, et := range l.Catalog().EventTypes() {
		typeNames = append(typeNames, et.Name)
	}
	assert.Equal(t, []string{"lesson", "survey"}, typeNames)

	score, err := l.Catalog().Column("score")
	require.NoError(t, err)
	assert.Equal(t, "score", score.DisplayName)
}

func TestReadJSONL_Malformed(t *testing.T) {
	_, err := NewLoader(nil, nil).ReadJSONL(context.Background(), strings.NewReader("{\"event_type\":\"a\"}\n{oops\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"event_type", "user_id", "content"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"lesson", "5", "A"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"survey", "6", ""}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	l := NewLoader(nil, nil)
	events, err := l.LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "lesson", events[0].Type)
	assert.Equal(t, "A", events[0].Values["content"])
	assert.Equal(t, "survey", events[1].Type)
	_, ok := events[1].Values["content"]
	assert.False(t, ok)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jsonl"), []byte(sampleJSONL), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644))

	events, err := NewLoader(nil, nil).LoadDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestLoadFile_Unsupported(t *testing.T) {
	_, err := NewLoader(nil, nil).LoadFile(context.Background(), "events.csv")
	assert.Error(t, err)
}

func TestBuildRows(t *testing.T) {
	l := NewLoader(nil, nil)
	events, err := l.ReadJSONL(context.Background(), strings.NewReader(sampleJSONL))
	require.NoError(t, err)

	cfg := report.NewConfiguration("r.csv")
	l.Catalog().Prepare(cfg)
	survey, ok := cfg.EventType("survey")
	require.True(t, ok)
	survey.Enabled = false

	rows := BuildRows(events, cfg)
	require.Len(t, rows, 2)

	c, ok := rows[0].Cell(report.EventTypeColumn)
	require.True(t, ok)
	assert.Equal(t, "lesson", c.Value)
	c, ok = rows[1].Cell(report.ContentColumn)
	require.True(t, ok)
	assert.Equal(t, "B", c.Value)
}

func TestCatalog_PrepareKeepsSelection(t *testing.T) {
	catalog := NewCatalog()
	catalog.ObserveEventType("lesson")
	cfg := report.NewConfiguration("r.csv", report.ContentColumn.Clone())
	cfg.EventTypes = []*report.EventTypeDisplay{{EventType: report.EventType{Name: "lesson"}, Enabled: false}}

	catalog.Prepare(cfg)
	assert.Len(t, cfg.ReportColumns, 1)
	require.Len(t, cfg.EventTypes, 1)
	assert.False(t, cfg.EventTypes[0].Enabled)
}
