package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestNewDiscovery(t *testing.T) {
	discovery := NewDiscovery("/test/base")
	assert.NotNil(t, discovery)
	assert.Equal(t, "/test/base", discovery.basePath)
}

func TestFindEventFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, "b.jsonl"), now)
	touch(t, filepath.Join(dir, "a.XLSX"), now.Add(-time.Hour))
	touch(t, filepath.Join(dir, "c.ndjson"), now.Add(-2*time.Hour))
	touch(t, filepath.Join(dir, "notes.txt"), now)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jsonl"), 0755))

	found, err := NewDiscovery(dir).FindEventFiles("")
	require.NoError(t, err)

	var names []string
	for _, f := range found {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"c.ndjson", "a.XLSX", "b.jsonl"}, names)

	latest, ok := GetLatestFile(found)
	require.True(t, ok)
	assert.Equal(t, "b.jsonl", latest.Name)
}

func TestFindSettingsFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "weekly.settings"), time.Now())
	touch(t, filepath.Join(dir, "weekly.settings.tmp"), time.Now())

	found, err := NewDiscovery(dir).FindSettingsFiles("")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "weekly.settings", found[0].Name)
}

func TestFindFilesByPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "GIFT.Report.1.zip"), time.Now())
	touch(t, filepath.Join(dir, "other.zip"), time.Now())

	found, err := NewDiscovery(dir).FindFilesByPattern("", ArchivePrefix+"*.zip")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "GIFT.Report.1.zip", found[0].Name)

	_, err = NewDiscovery(dir).FindFilesByPattern("", "[")
	assert.Error(t, err)
}

func TestFindByExtension_MissingDir(t *testing.T) {
	_, err := NewDiscovery(t.TempDir()).FindByExtension("missing", ".jsonl")
	assert.Error(t, err)
}

func TestGetLatestFile_Empty(t *testing.T) {
	_, ok := GetLatestFile(nil)
	assert.False(t, ok)
}
