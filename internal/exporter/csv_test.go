package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	content = bytes.TrimPrefix(content, utf8BOM)
	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	tests := []struct {
		name    string
		options WriteOptions
		want    [][]string
		wantBOM bool
	}{
		{
			name:    "header only",
			options: WriteOptions{Headers: []string{"User_ID", "Content"}},
			want:    [][]string{{"User_ID", "Content"}},
		},
		{
			name: "header and records with BOM",
			options: WriteOptions{
				Headers:   []string{"a", "b"},
				Records:   [][]string{{"1", "x,y"}, {"2", `say "hi"`}},
				BOMPrefix: true,
			},
			want:    [][]string{{"a", "b"}, {"1", "x,y"}, {"2", `say "hi"`}},
			wantBOM: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			w := NewCSVWriter(dir)
			require.NoError(t, w.WriteCSV("nested/out.csv", tt.options))

			path := filepath.Join(dir, "nested", "out.csv")
			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(raw, utf8BOM))
			assert.Equal(t, tt.want, readCSV(t, path))
		})
	}
}

func TestCSVWriter_Append(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)
	require.NoError(t, w.WriteCSV("out.csv", WriteOptions{Headers: []string{"h"}, Records: [][]string{{"1"}}}))
	require.NoError(t, w.WriteCSV("out.csv", WriteOptions{Headers: []string{"h"}, Records: [][]string{{"2"}}, Append: true}))

	assert.Equal(t, [][]string{{"h"}, {"1"}, {"2"}}, readCSV(t, filepath.Join(dir, "out.csv")))
}

func TestStreamWriter(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVWriter(dir).CreateStreamWriter("stream.csv", WriteOptions{CRLF: true})
	require.NoError(t, err)

	require.NoError(t, s.WriteHeader([]string{"a", "b"}))
	require.NoError(t, s.WriteRecord([]string{"1", "2"}))
	require.NoError(t, s.WriteRecord([]string{"3", "4"}))
	assert.Equal(t, 2, s.Records())
	assert.Equal(t, filepath.Join(dir, "stream.csv"), s.Path())
	require.NoError(t, s.Close())

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "a,b\r\n1,2\r\n3,4\r\n", string(raw))
}

func TestCSVWriter_ResolvePath(t *testing.T) {
	w := NewCSVWriter("/base")
	assert.Equal(t, filepath.Join("/base", "r.csv"), w.resolvePath("r.csv"))
	assert.Equal(t, "/abs/r.csv", w.resolvePath("/abs/r.csv"))
	assert.Equal(t, "r.csv", NewCSVWriter("").resolvePath("r.csv"))
}
