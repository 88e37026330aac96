// Package generator writes report archives.
//
// A ReportWriter owns one report run: it assembles rows with the report
// package, streams the table to a CSV or XLSX data file, saves the settings
// sidecar next to it and zips both into the output directory. Progress is
// published through a report.ProgressStatus so callers can poll it from
// another goroutine.
//
//	w, err := generator.NewReportWriter(cfg, generator.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	if err := w.WriteTest(ctx); err != nil {
//		return err
//	}
//	result, err := w.Write(ctx, rows)
package generator
