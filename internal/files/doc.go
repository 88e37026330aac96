// Package files provides file system operations for report generation.
//
// This package contains two main components:
//
// Manager: creates per-report working directories, writes files atomically,
// bundles finished reports into zip archives and cleans up afterwards. All
// relative paths resolve against a base directory.
//
// Discovery: finds event source files and saved settings files in a
// directory.
//
// Example usage:
//
//	manager := files.NewManager("/var/lib/ert/output", logger)
//	dir, err := manager.CreateReportDirectory()
//	name := files.ArchiveName(time.Now(), "alice")
//	err = manager.Archive(name, filepath.Join(dir, "report.csv"))
//	err = manager.DeleteDirectory(dir)
package files
