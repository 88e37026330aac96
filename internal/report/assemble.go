package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Pipeline phases, in order.
const (
	PhaseInit       = "init"
	PhaseTest       = "test"
	PhaseFilter     = "filter"
	PhaseMerge      = "merge"
	PhaseSort       = "sort"
	PhaseCollisions = "collisions"
	PhasePrune      = "prune"
	PhaseWrite      = "write"
	PhasePackage    = "package"
	PhaseDone       = "done"
)

// Progress milestones.
const (
	filterPercent  = 20
	mergePercent   = 30
	sortPercent    = 40
	collisionStart = 40
	pruneStart     = 60
	writeStart     = 80
	phaseSpan      = 20
)

// PackagePercent is reported while the finished file is packaged. Only
// Finish reaches 100.
const PackagePercent = 99

var phaseDescriptions = map[string]string{
	PhaseInit:       "Initializing...",
	PhaseTest:       "Testing the report writer.",
	PhaseFilter:     "Removing rows that violate any filters you provided.",
	PhaseMerge:      "Merging rows",
	PhaseSort:       "Sorting rows",
	PhaseCollisions: "Handling cell collisions",
	PhasePrune:      "Removing dataless columns",
	PhaseWrite:      "Writing data to the report file.",
	PhasePackage:    "Packaging the report.",
	PhaseDone:       "Finished",
}

// PhaseDescription returns the user-facing text for phase.
func PhaseDescription(phase string) string {
	if d, ok := phaseDescriptions[phase]; ok {
		return d
	}
	return phase
}

// WritePercent maps written rows onto the band between 80 percent and
// PackagePercent.
func WritePercent(done, total int) int {
	return phasePercent(writeStart, PackagePercent-writeStart, done, total)
}

// Options are the collaborators of one assembly.
type Options struct {
	Classifier Classifier
	Progress   *ProgressStatus
	Logger     *slog.Logger
}

// AssemblyStats summarizes the phases of one assembly.
type AssemblyStats struct {
	InputRows      int
	Filter         FilterStats
	Merge          MergeStats
	Relocated      int
	PrunedColumns  []string
	SpacerInserted bool
}

// Table is an assembled report ready to be written.
type Table struct {
	Header     *Header
	Rows       []*Row
	Resolution *Resolution
	Stats      AssemblyStats

	emptyCellValue string
	relocate       bool
}

// Assemble runs filter, merge, sort, collision resolution, relocation,
// dataless pruning and spacer insertion over rows. Only an unsupported filter
// property fails the assembly.
func Assemble(ctx context.Context, cfg *Configuration, rows []*Row, opts Options) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "report"))
	progress := opts.Progress
	m := instruments()

	t := &Table{
		Header:         HeaderFromColumns(cfg.ReportColumns),
		emptyCellValue: cfg.EmptyCellValue,
		relocate:       cfg.RelocateDuplicateColumns,
	}
	t.Stats.InputRows = len(rows)

	_, end := startPhase(ctx, PhaseFilter)
	filtered, fstats, err := FilterRows(rows, cfg.ColumnProperties, progress)
	end(err)
	if err != nil {
		logger.ErrorContext(ctx, "Row filter failed", slog.String("error", err.Error()))
		return nil, err
	}
	t.Stats.Filter = fstats
	addCount(ctx, m.rowsFiltered, fstats.Removed)
	logger.InfoContext(ctx, "Removed rows based on column properties",
		slog.Int("removed", fstats.Removed),
		slog.Int("unparsed_values", fstats.Unparsed))

	if progress != nil {
		progress.Advance(PhaseMerge, filterPercent)
	}
	_, end = startPhase(ctx, PhaseMerge)
	merged, mstats := MergeRows(filtered, cfg, opts.Classifier)
	end(nil)
	t.Stats.Merge = mstats
	addCount(ctx, m.rowsMerged, mstats.Merged)
	if mstats.Key != nil {
		logger.InfoContext(ctx, "Merged rows",
			slog.String("merge_by", mstats.Key.Name),
			slog.Bool("time_key", opts.Classifier.isTime(mstats.Key)),
			slog.Int("absorbed", mstats.Merged),
			slog.Int("roots", mstats.Roots))
	}
	if progress != nil {
		progress.SetPercent(mergePercent)
		progress.Advance(PhaseSort, mergePercent)
	}

	_, end = startPhase(ctx, PhaseSort)
	SortRows(merged, cfg.SortBy)
	end(nil)
	if cfg.SortBy != nil {
		logger.InfoContext(ctx, "Sorted rows", slog.String("sort_by", cfg.SortBy.Name))
	}
	if progress != nil {
		progress.SetPercent(sortPercent)
	}
	t.Rows = merged

	_, end = startPhase(ctx, PhaseCollisions)
	t.Resolution = ResolveHeader(t.Rows, t.Header, enabledNames(cfg), progress)
	end(nil)
	if t.Resolution.CreatedDuplicates {
		addCount(ctx, m.duplicateLabels, countDuplicates(t.Header))
	}
	if t.Resolution.Orphans > 0 {
		logger.DebugContext(ctx, "Collision labels for columns not in the header",
			slog.Int("count", t.Resolution.Orphans))
	}

	if cfg.RelocateDuplicateColumns {
		t.Stats.Relocated = RelocateDuplicates(t.Header)
	}

	if cfg.ExcludeDatalessColumns {
		_, end = startPhase(ctx, PhasePrune)
		t.Stats.PrunedColumns = PruneDataless(t.Header, t.Resolution, progress)
		end(nil)
		addCount(ctx, m.prunedLabels, len(t.Stats.PrunedColumns))
		for _, l := range t.Stats.PrunedColumns {
			logger.DebugContext(ctx, "Removed column with no data", slog.String("header", l))
		}
	}
	if progress != nil {
		progress.SetPercent(writeStart)
	}

	if cfg.RelocateDuplicateColumns && t.Resolution.CreatedDuplicates {
		t.Stats.SpacerInserted = InsertSpacer(t.Header)
	}
	return t, nil
}

func countDuplicates(h *Header) int {
	n := 0
	for _, l := range h.labels {
		if IsDuplicateLabel(l) {
			n++
		}
	}
	return n
}

// CreatedDuplicates reports whether collision columns were added.
func (t *Table) CreatedDuplicates() bool {
	return t.Resolution != nil && t.Resolution.CreatedDuplicates
}

// Record renders row against the header. Missing and empty values become the
// empty-cell placeholder and line breaks are stripped. A cell without a
// resolved label is a RecoverableRowError.
func (t *Table) Record(index int, row *Row) ([]string, error) {
	values := make(map[string]string, len(row.Cells))
	for _, c := range row.Cells {
		label, ok := t.Resolution.Label(c)
		if !ok {
			return nil, NewRecoverableRowError(index,
				fmt.Sprintf("unable to find the column for cell %s", c), nil)
		}
		if label == "" {
			continue
		}
		values[label] = c.Value
	}
	record := make([]string, t.Header.Len())
	for i, label := range t.Header.labels {
		v := values[label]
		if v == "" {
			record[i] = t.emptyCellValue
			continue
		}
		record[i] = stripLineBreaks(v)
	}
	return record, nil
}

func stripLineBreaks(v string) string {
	if !strings.ContainsAny(v, "\r\n") {
		return v
	}
	return strings.NewReplacer("\r", "", "\n", "").Replace(v)
}

// FinishedDetails describes duplicate columns for the finished report.
func (t *Table) FinishedDetails() string {
	if !t.CreatedDuplicates() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("> Additional columns were added during the merge process and are identified by the suffix of '(#)' in the column name.")
	if t.relocate {
		sb.WriteString(" These duplicate columns have been moved to the end of the column list and are separated from the rest of the columns by an empty column with the name of ")
		sb.WriteString(DuplicateColumnSpacer)
		sb.WriteString(".")
	}
	return sb.String()
}
