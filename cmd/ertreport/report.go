package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ertcli/internal/eventsource"
	"ertcli/internal/exporter"
	"ertcli/internal/generator"
	"ertcli/internal/report"
	"ertcli/internal/services"
	"ertcli/internal/settings"
	"ertcli/internal/validation"
)

// reportFlags select the events and shape the configuration.
type reportFlags struct {
	events             string
	settings           string
	fileName           string
	outputDir          string
	format             string
	mergeBy            string
	sortBy             string
	userName           string
	emptyValue         string
	excludeDataless    bool
	relocateDuplicates bool
}

func (f *reportFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.events, "events", "e", "", "event file (.jsonl, .ndjson, .xlsx) or directory of event files")
	fl.StringVarP(&f.settings, "settings", "s", "", "settings file path, or name in the settings directory")
	fl.StringVarP(&f.fileName, "file", "f", "", "report file name (default from config)")
	fl.StringVarP(&f.outputDir, "output", "o", "", "output directory (default from config)")
	fl.StringVar(&f.format, "format", "", "report format: csv or xlsx (default from file name)")
	fl.StringVar(&f.mergeBy, "merge-by", "", "column whose equal values merge rows")
	fl.StringVar(&f.sortBy, "sort-by", "", "column to sort rows by")
	fl.StringVar(&f.userName, "user", "", "user name recorded in the archive name")
	fl.StringVar(&f.emptyValue, "empty-value", "", "value written for empty cells")
	fl.BoolVar(&f.excludeDataless, "exclude-dataless", false, "drop columns with no data")
	fl.BoolVar(&f.relocateDuplicates, "relocate-duplicates", false, "move duplicate columns next to their original")
	cmd.MarkFlagRequired("events")
}

// build loads the events and resolves the configuration.
func (f *reportFlags) build(ctx context.Context, cmd *cobra.Command, opts *rootOptions) (*report.Configuration, []*report.Row, error) {
	defaults := opts.cfg.Report
	preflight := validation.NewPathValidator(opts.logger)
	if _, err := preflight.ValidateEventsPath(f.events); err != nil {
		return nil, nil, err
	}
	catalog := eventsource.NewCatalog()
	events, err := services.LoadEvents(ctx, f.events, catalog, opts.logger)
	if err != nil {
		return nil, nil, err
	}

	fileName := defaults.FileName
	if f.fileName != "" {
		fileName = f.fileName
	}
	cfg := report.NewConfiguration(fileName)
	cfg.EmptyCellValue = defaults.EmptyCellValue
	cfg.OutputDir = defaults.OutputDir
	cfg.UserName = defaults.UserName

	catalog.Prepare(cfg)
	if f.settings != "" {
		if err := f.loadSettings(cfg, defaults.SettingsDir, opts); err != nil {
			return nil, nil, err
		}
	}

	fl := cmd.Flags()
	if fl.Changed("file") {
		cfg.FileName = f.fileName
	}
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}
	if err := preflight.ValidateOutputDirectory(cfg.OutputDir); err != nil {
		return nil, nil, err
	}
	if f.userName != "" {
		cfg.UserName = f.userName
	}
	if fl.Changed("empty-value") {
		cfg.EmptyCellValue = f.emptyValue
	}
	if fl.Changed("exclude-dataless") {
		cfg.ExcludeDatalessColumns = f.excludeDataless
	}
	if fl.Changed("relocate-duplicates") {
		cfg.RelocateDuplicateColumns = f.relocateDuplicates
	}
	if f.mergeBy != "" {
		if cfg.MergeBy, err = catalog.Column(f.mergeBy); err != nil {
			return nil, nil, err
		}
	}
	if f.sortBy != "" {
		if cfg.SortBy, err = catalog.Column(f.sortBy); err != nil {
			return nil, nil, err
		}
	}
	return cfg, eventsource.BuildRows(events, cfg), nil
}

// loadSettings reads an existing settings file, or a named one from the
// settings directory.
func (f *reportFlags) loadSettings(cfg *report.Configuration, dir string, opts *rootOptions) error {
	if info, err := os.Stat(f.settings); err == nil && !info.IsDir() {
		return settings.Load(f.settings, cfg, opts.logger)
	}
	return settings.NewStore(dir, opts.logger).Load(f.settings, cfg)
}

// writerOptions returns the generator options for cfg.
func (f *reportFlags) writerOptions(cfg *report.Configuration, opts *rootOptions, extra ...generator.Option) ([]generator.Option, error) {
	format := exporter.FormatFromFileName(cfg.FileName)
	if f.format != "" {
		var err error
		if format, err = exporter.ParseFormat(f.format); err != nil {
			return nil, err
		}
	}
	defaults := opts.cfg.Report
	out := []generator.Option{
		generator.WithLogger(opts.logger),
		generator.WithFormat(format),
		generator.WithWriteHeader(defaults.WriteHeader),
		generator.WithWriteOptions(exporter.WriteOptions{BOMPrefix: defaults.UTF8BOM, CRLF: defaults.CRLF}),
	}
	return append(out, extra...), nil
}

func printResult(cmd *cobra.Command, name string, res *generator.Result) {
	w := cmd.OutOrStdout()
	if name != "" {
		fmt.Fprintf(w, "%s: ", name)
	}
	size := "?"
	if info, err := os.Stat(res.ArchivePath); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	fmt.Fprintf(w, "%s (%s, %d rows written, %d skipped)\n", res.ArchivePath, size, res.RowsWritten, res.RowsSkipped)
	if res.Details != "" {
		fmt.Fprintf(w, "  %s\n", res.Details)
	}
}
