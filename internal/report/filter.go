package report

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// FilterStats summarizes a filter pass.
type FilterStats struct {
	Removed  int
	Unparsed int
}

// FilterRows drops every row holding a cell that violates the min/max property
// of its column. Values with a decimal point are seconds and are compared in
// milliseconds; other values are compared as raw integers. Any other property
// kind aborts the pass with an UnsupportedFilterError. Progress moves from 0 to
// 20 percent. A nil progress is allowed.
func FilterRows(rows []*Row, props map[string]ColumnProperty, progress *ProgressStatus) ([]*Row, FilterStats, error) {
	var stats FilterStats
	if progress != nil {
		progress.Advance(PhaseFilter, 0)
	}
	kept := make([]*Row, 0, len(rows))
	for i, row := range rows {
		remove, unparsed, err := violatesFilters(row, props)
		if err != nil {
			return nil, stats, err
		}
		stats.Unparsed += unparsed
		if remove {
			stats.Removed++
		} else {
			kept = append(kept, row)
		}
		if progress != nil {
			progress.SetPercent(phasePercent(0, filterPercent, i+1, len(rows)))
		}
	}
	if progress != nil {
		progress.SetPercent(filterPercent)
	}
	return kept, stats, nil
}

func violatesFilters(row *Row, props map[string]ColumnProperty) (bool, int, error) {
	unparsed := 0
	for _, cell := range row.Cells {
		prop, ok := props[cell.Column.Name]
		if !ok || prop == nil {
			continue
		}
		mm, ok := prop.(*MinMaxProperty)
		if !ok {
			return false, unparsed, NewUnsupportedFilterError(cell.Column.Name, prop.Kind())
		}
		v, ok := FilterValue(cell.Value)
		if !ok {
			unparsed++
			continue
		}
		if mm.Violates(v) {
			return true, unparsed, nil
		}
	}
	return false, unparsed, nil
}

// FilterValue converts a cell value to the integer the range filter compares.
// "1.5" is 1500 (seconds to milliseconds, truncated); "900" is 900. Values
// outside the int64 range saturate at math.MinInt64 or math.MaxInt64.
func FilterValue(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if strings.Contains(value, ".") {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		if math.IsNaN(f) {
			return 0, false
		}
		return saturate(f * 1000), true
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		// ParseInt already returns the bound matching the sign.
		return v, true
	}
	if err != nil {
		return 0, false
	}
	return v, true
}

func saturate(f float64) int64 {
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}
