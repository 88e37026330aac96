package report

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var numericPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// IsNumeric reports whether s is an optionally negative decimal number.
func IsNumeric(s string) bool {
	return numericPattern.MatchString(s)
}

// CompareRows orders a and b by their value for column. A row carrying the
// column sorts before one that does not; two numeric values compare as
// numbers, anything else compares as strings.
func CompareRows(a, b *Row, column *Column) int {
	ca, okA := a.Cell(column)
	cb, okB := b.Cell(column)
	switch {
	case !okA && !okB:
		return 0
	case !okB:
		return -1
	case !okA:
		return 1
	}
	return CompareValues(ca.Value, cb.Value)
}

// CompareValues is the value comparison used by CompareRows.
func CompareValues(a, b string) int {
	if IsNumeric(a) && IsNumeric(b) {
		fa, errA := strconv.ParseFloat(a, 64)
		fb, errB := strconv.ParseFloat(b, 64)
		if errA == nil && errB == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(a, b)
}

// SortRows stably sorts rows in place by column. A nil column leaves rows as is.
func SortRows(rows []*Row, column *Column) {
	if column == nil {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return CompareRows(rows[i], rows[j], column) < 0
	})
}
