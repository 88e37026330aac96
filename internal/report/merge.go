package report

import (
	"sort"
	"strconv"
	"strings"

	set "github.com/hashicorp/go-set/v2"
)

const domainSessionSeparator = ";"

// MergeStats summarizes a merge pass.
type MergeStats struct {
	// Key is the column rows were merged on, after participant substitution.
	Key *Column
	// Merged counts rows absorbed into another row.
	Merged int
	// Roots counts rows that absorbed at least one other row.
	Roots int
}

// MergeKey returns the column rows are merged on. A user-identity merge column
// is replaced by the participant-identity column when the configuration has
// that column enabled.
func MergeKey(cfg *Configuration, cls Classifier) *Column {
	key := cfg.MergeBy
	if key == nil || !cls.isUserID(key) {
		return key
	}
	for _, col := range cfg.ReportColumns {
		if col != nil && col.Enabled && cls.isParticipantID(col) {
			return col
		}
	}
	return key
}

// MergeRows combines rows sharing a value for the merge column. Rows are sorted
// by that column first so equal values are contiguous; each run collapses into
// its first row. Rows without the column pass through unchanged. The returned
// slice is a new list; absorbed rows are not in it.
func MergeRows(rows []*Row, cfg *Configuration, cls Classifier) ([]*Row, MergeStats) {
	key := MergeKey(cfg, cls)
	stats := MergeStats{Key: key}
	if key == nil {
		return rows, stats
	}

	sorted := make([]*Row, len(rows))
	copy(sorted, rows)
	sortForMerge(sorted, key)

	m := merger{cls: cls, key: key, keyIsTime: cls.isTime(key), enabled: enabledNames(cfg)}
	consumed := make([]bool, len(sorted))
	out := make([]*Row, 0, len(sorted))
	for i, root := range sorted {
		if consumed[i] {
			continue
		}
		out = append(out, root)
		rootKey, ok := root.Cell(key)
		if !ok {
			continue
		}
		m.begin(root)
		absorbed := 0
		for j := i + 1; j < len(sorted); j++ {
			if consumed[j] {
				continue
			}
			candidate, ok := sorted[j].Cell(key)
			if !ok {
				continue
			}
			if candidate.Value != rootKey.Value {
				break
			}
			m.absorb(sorted[j])
			consumed[j] = true
			absorbed++
		}
		if absorbed == 0 {
			continue
		}
		stats.Merged += absorbed
		stats.Roots++
		if !m.keyIsTime {
			root.RemoveCells(func(c *Cell) bool { return cls.isTime(c.Column) })
		}
	}
	return out, stats
}

// sortForMerge orders rows like SortRows but breaks ties between numerically
// equal values ("5" and "05") by their raw text, so every run of identical
// keys is contiguous.
func sortForMerge(rows []*Row, key *Column) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := CompareRows(rows[i], rows[j], key); c != 0 {
			return c < 0
		}
		a, okA := rows[i].Cell(key)
		b, okB := rows[j].Cell(key)
		return okA && okB && a.Value < b.Value
	})
}

// merger holds the per-root state of a merge pass.
type merger struct {
	cls       Classifier
	key       *Column
	keyIsTime bool
	enabled   *set.Set[string]

	root  *Row
	dsID  *Cell
	dsIDs *set.Set[string]
}

func (m *merger) begin(root *Row) {
	m.root = root
	m.dsID = nil
	m.dsIDs = set.New[string](4)
	for _, c := range root.Cells {
		if m.cls.isDomainSessionID(c.Column) {
			m.dsID = c
			for _, id := range splitSessionIDs(c.Value) {
				m.dsIDs.Insert(id)
			}
			break
		}
	}
}

func (m *merger) absorb(row *Row) {
	for _, c := range row.Cells {
		switch {
		case c.Column.Equal(m.key):
		case !m.enabled.Contains(c.Column.Name):
		case m.cls.isTime(c.Column) && !m.keyIsTime:
		case m.cls.isDomainSessionID(c.Column):
			m.mergeSessionIDs(c)
		default:
			m.root.AddCell(c)
		}
	}
}

func (m *merger) mergeSessionIDs(c *Cell) {
	ids := splitSessionIDs(c.Value)
	if m.dsID == nil {
		m.dsID = c
		m.root.AddCell(c)
		for _, id := range ids {
			m.dsIDs.Insert(id)
		}
		return
	}
	for _, id := range ids {
		if m.dsIDs.Insert(id) {
			if m.dsID.Value == "" {
				m.dsID.Value = id
			} else {
				m.dsID.Value += domainSessionSeparator + id
			}
		}
	}
}

func enabledNames(cfg *Configuration) *set.Set[string] {
	names := set.New[string](len(cfg.ReportColumns))
	for _, col := range cfg.EnabledColumns() {
		names.Insert(col.Name)
	}
	return names
}

// splitSessionIDs splits a semicolon list, normalizing integer ids so "07"
// and "7" are the same session.
func splitSessionIDs(value string) []string {
	parts := strings.Split(value, domainSessionSeparator)
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if n, err := strconv.ParseInt(p, 10, 64); err == nil {
			p = strconv.FormatInt(n, 10)
		}
		ids = append(ids, p)
	}
	return ids
}
