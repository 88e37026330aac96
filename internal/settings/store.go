package settings

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"ertcli/internal/files"
	"ertcli/internal/report"
)

// Extension is the suffix of saved settings files.
const Extension = ".settings"

// Store keeps named settings files in one directory.
type Store struct {
	dir       string
	manager   *files.Manager
	discovery *files.Discovery
	logger    *slog.Logger
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:       dir,
		manager:   files.NewManager(dir, logger),
		discovery: files.NewDiscovery(dir),
		logger:    logger.With(slog.String("component", "settings")),
	}
}

// List returns saved settings names, oldest first.
func (s *Store) List() ([]string, error) {
	if err := s.manager.CreateDirectory(""); err != nil {
		return nil, report.NewPersistenceError("failed to create settings directory", err)
	}
	found, err := s.discovery.FindSettingsFiles("")
	if err != nil {
		return nil, report.NewPersistenceError("failed to list settings", err)
	}
	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.Name
	}
	return names, nil
}

// Save stores cfg under name.
func (s *Store) Save(name string, cfg *report.Configuration) error {
	file, err := fileName(name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, cfg); err != nil {
		return err
	}
	if err := s.manager.WriteFile(file, buf.Bytes()); err != nil {
		return report.NewPersistenceError("failed to save settings", err)
	}
	s.logger.Info("Saved report settings", slog.String("name", file))
	return nil
}

// Load reads the named settings into cfg.
func (s *Store) Load(name string, cfg *report.Configuration) error {
	file, err := fileName(name)
	if err != nil {
		return err
	}
	if !s.manager.FileExists(file) {
		return report.NewPersistenceError(fmt.Sprintf("settings %q not found", file), nil).
			WithContext("not_found", true)
	}
	return Load(filepath.Join(s.dir, file), cfg, s.logger)
}

// Exists reports whether name has been saved.
func (s *Store) Exists(name string) bool {
	file, err := fileName(name)
	return err == nil && s.manager.FileExists(file)
}

func fileName(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) || base != strings.TrimSpace(name) {
		return "", report.NewPersistenceError(fmt.Sprintf("invalid settings name %q", name), nil)
	}
	if !strings.HasSuffix(base, Extension) {
		base += Extension
	}
	return base, nil
}
