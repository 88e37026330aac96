package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ertcli/internal/files"
)

// EventExtensions are the event file suffixes the loader reads.
var EventExtensions = []string{".jsonl", ".ndjson", ".xlsx"}

// PathValidator checks report inputs and outputs before any work starts
type PathValidator struct {
	logger *slog.Logger
}

// NewPathValidator creates a new path validator
func NewPathValidator(logger *slog.Logger) *PathValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &PathValidator{
		logger: logger.With(slog.String("component", "validation")),
	}
}

// ValidateEventsPath checks that path is a readable event file, or a
// directory holding at least one. It returns the number of event files.
func (v *PathValidator) ValidateEventsPath(path string) (int, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Events path does not exist", slog.String("path", path))
		return 0, fmt.Errorf("events path %s does not exist", path)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat events path %s: %w", path, err)
	}

	if !info.IsDir() {
		if err := v.ValidateEventFile(path); err != nil {
			return 0, err
		}
		return 1, nil
	}

	found, err := files.NewDiscovery(path).FindByExtension("", EventExtensions...)
	if err != nil {
		return 0, err
	}
	if len(found) == 0 {
		v.logger.Warn("No event files found",
			slog.String("directory", path),
			slog.String("extensions", strings.Join(EventExtensions, ",")))
		return 0, fmt.Errorf("no event files in %s", path)
	}
	v.logger.Debug("Events directory validated",
		slog.String("directory", path),
		slog.Int("files_found", len(found)))
	return len(found), nil
}

// ValidateEventFile checks a single event file's name and readability
func (v *PathValidator) ValidateEventFile(path string) error {
	if files.IsLockFile(path) {
		v.logger.Warn("Skipping lock file", slog.String("file", path))
		return fmt.Errorf("file %s is an office lock file", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, e := range EventExtensions {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("file %s is not an event file (extension: %q)", path, ext)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Event file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	return file.Close()
}

// ValidateOutputDirectory ensures the output directory exists and is writable
func (v *PathValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}
