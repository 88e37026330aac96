// Package report assembles normalized event rows into a tabular event report.
//
// The package contains the report model and the assembly phases:
//
// Column, Cell and Row: the report schema and the rows built from events. Column
// identity is the internal name; the output label is the display name with
// spaces replaced by underscores.
//
// FilterRows: drops rows violating per-column min/max properties.
//
// MergeRows: collapses rows sharing a merge-by value into one row, with special
// handling for time and domain session id columns.
//
// SortRows: orders rows by one column, numerically when both values are numbers.
//
// ResolveHeader, RelocateDuplicates, PruneDataless, InsertSpacer: build the
// output header so no two cells of a row share a label.
//
// ProgressStatus: lock-free progress shared with pollers.
//
// Example usage:
//
//	cfg := report.NewConfiguration("report.csv", report.DomainSessionColumns()...)
//	cfg.MergeBy = report.UserIDColumn
//	table, err := report.Assemble(ctx, cfg, rows, report.Options{
//	    Classifier: report.DefaultClassifier(),
//	    Progress:   status,
//	})
//	for i, row := range table.Rows {
//	    record, err := table.Record(i, row)
//	    // write record
//	}
package report
