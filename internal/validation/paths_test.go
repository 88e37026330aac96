package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathValidator_ValidateEventsPath(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantCount     int
		errorContains string
	}{
		{
			name: "single jsonl file",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "events.jsonl")
				require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))
				return path
			},
			wantCount: 1,
		},
		{
			name: "directory with event files",
			setupFunc: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jsonl"), []byte("{}\n"), 0644))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "b.xlsx"), []byte("x"), 0644))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "~$b.xlsx"), []byte("x"), 0644))
				return dir
			},
			wantCount: 2,
		},
		{
			name: "empty directory",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			errorContains: "no event files",
		},
		{
			name: "non-existent path",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing")
			},
			errorContains: "does not exist",
		},
		{
			name: "unsupported extension",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "events.csv")
				require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0644))
				return path
			},
			errorContains: "not an event file",
		},
		{
			name: "lock file",
			setupFunc: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "~$events.xlsx")
				require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
				return path
			},
			errorContains: "lock file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewPathValidator(nil)
			count, err := v.ValidateEventsPath(tt.setupFunc(t))
			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestPathValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewPathValidator(nil)

	dir := filepath.Join(t.TempDir(), "nested", "output")
	require.NoError(t, v.ValidateOutputDirectory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "write probe should be removed")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	assert.Error(t, v.ValidateOutputDirectory(filepath.Join(blocker, "sub")))
}
