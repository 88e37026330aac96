package report

import (
	"fmt"
	"regexp"

	set "github.com/hashicorp/go-set/v2"
)

// DuplicateColumnSpacer separates relocated duplicate columns from the rest.
const DuplicateColumnSpacer = "DUPLICATE_COL_SPACER"

var duplicatePattern = regexp.MustCompile(`.\(\d+\)$`)

// IsDuplicateLabel reports whether label carries a "(N)" collision suffix.
func IsDuplicateLabel(label string) bool {
	return duplicatePattern.MatchString(label)
}

// DuplicateLabel returns base with the collision suffix n.
func DuplicateLabel(base string, n int) string {
	return fmt.Sprintf("%s(%d)", base, n)
}

// Header is the ordered list of output labels with a membership index kept in
// step with every change.
type Header struct {
	labels []string
	index  *set.Set[string]
}

// NewHeader returns a header holding labels in order, skipping repeats.
func NewHeader(labels ...string) *Header {
	h := &Header{labels: make([]string, 0, len(labels)), index: set.New[string](len(labels))}
	for _, l := range labels {
		h.Append(l)
	}
	return h
}

// HeaderFromColumns builds the header from the enabled columns' labels.
func HeaderFromColumns(cols []*Column) *Header {
	h := NewHeader()
	for _, c := range cols {
		if c != nil && c.Enabled {
			h.Append(c.Label())
		}
	}
	return h
}

// Append adds label at the end. It reports false if label is already present.
func (h *Header) Append(label string) bool {
	if !h.index.Insert(label) {
		return false
	}
	h.labels = append(h.labels, label)
	return true
}

// InsertAt places label at position i, or at the end when i is past it.
func (h *Header) InsertAt(i int, label string) bool {
	if i >= len(h.labels) {
		return h.Append(label)
	}
	if i < 0 {
		i = 0
	}
	if !h.index.Insert(label) {
		return false
	}
	h.labels = append(h.labels, "")
	copy(h.labels[i+1:], h.labels[i:])
	h.labels[i] = label
	return true
}

// Remove deletes label and reports whether it was present.
func (h *Header) Remove(label string) bool {
	i := h.Index(label)
	if i < 0 {
		return false
	}
	h.index.Remove(label)
	h.labels = append(h.labels[:i], h.labels[i+1:]...)
	return true
}

// Index returns the position of label or -1.
func (h *Header) Index(label string) int {
	if !h.index.Contains(label) {
		return -1
	}
	for i, l := range h.labels {
		if l == label {
			return i
		}
	}
	return -1
}

// Contains reports membership.
func (h *Header) Contains(label string) bool { return h.index.Contains(label) }

// Len returns the number of labels.
func (h *Header) Len() int { return len(h.labels) }

// Labels returns a copy of the labels in order.
func (h *Header) Labels() []string {
	out := make([]string, len(h.labels))
	copy(out, h.labels)
	return out
}

// replace swaps the label order for an equal set of labels.
func (h *Header) replace(labels []string) {
	h.labels = labels
}

// Resolution maps every cell to its output label.
type Resolution struct {
	Labels map[*Cell]string
	// CreatedDuplicates is set when a suffixed label was added to the header.
	CreatedDuplicates bool
	// Orphans counts cells resolved to a label that is not in the header:
	// suffixed labels whose base is missing and cells of disabled columns.
	Orphans int
	// order lists resolved labels in row order for the dataless scan.
	order []string
}

// Label returns the resolved label for c. Cells of disabled columns resolve
// to the empty label, which is never written.
func (r *Resolution) Label(c *Cell) (string, bool) {
	l, ok := r.Labels[c]
	return l, ok
}

// ResolveHeader gives every cell a label that is unique within its row.
// The first cell of a label keeps it; later ones take the lowest free "(N)"
// suffix. Suffixed labels already in the header are reused, new ones are
// inserted N-1 places after their base label. A base label missing from the
// header (its column is not written) yields a row-unique label that is never
// added to the header. Cells whose column name is not in enabled resolve to
// the empty label and take no part in the collision count; a nil enabled set
// treats every column as enabled. Progress moves from 40 to 60 percent.
func ResolveHeader(rows []*Row, header *Header, enabled *set.Set[string], progress *ProgressStatus) *Resolution {
	res := &Resolution{Labels: make(map[*Cell]string)}
	if progress != nil {
		progress.Advance(PhaseCollisions, collisionStart)
	}
	for i, row := range rows {
		used := set.New[string](len(row.Cells))
		for _, cell := range row.Cells {
			if enabled != nil && !enabled.Contains(cell.Column.Name) {
				res.Labels[cell] = ""
				res.Orphans++
				continue
			}
			label := resolveCell(cell.Column.Label(), used, header, res)
			res.Labels[cell] = label
			res.order = append(res.order, label)
		}
		if progress != nil {
			progress.SetPercent(phasePercent(collisionStart, phaseSpan, i+1, len(rows)))
		}
	}
	if progress != nil {
		progress.SetPercent(collisionStart + phaseSpan)
	}
	return res
}

func resolveCell(base string, used *set.Set[string], header *Header, res *Resolution) string {
	if used.Insert(base) {
		return base
	}
	n := 2
	label := DuplicateLabel(base, n)
	for used.Contains(label) {
		n++
		label = DuplicateLabel(base, n)
	}
	used.Insert(label)
	if header.Contains(label) {
		return label
	}
	at := header.Index(base)
	if at < 0 {
		res.Orphans++
		return label
	}
	header.InsertAt(at+n-1, label)
	res.CreatedDuplicates = true
	return label
}

// RelocateDuplicates moves suffixed labels to the end, keeping the relative
// order of both groups. It returns how many labels moved.
func RelocateDuplicates(header *Header) int {
	originals := make([]string, 0, header.Len())
	var dups []string
	for _, l := range header.labels {
		if IsDuplicateLabel(l) {
			dups = append(dups, l)
		} else {
			originals = append(originals, l)
		}
	}
	header.replace(append(originals, dups...))
	return len(dups)
}

// PruneDataless removes header labels no cell resolved to. Labels proven to
// have data are cached while scanning, so each resolved label is visited at
// most once overall. Progress moves from 60 to 80 percent. It returns the
// removed labels.
func PruneDataless(header *Header, res *Resolution, progress *ProgressStatus) []string {
	if progress != nil {
		progress.Advance(PhasePrune, pruneStart)
	}
	scan := datalessScan{order: res.order, seen: set.New[string](header.Len())}
	labels := header.Labels()
	var removed []string
	for i, l := range labels {
		if !scan.hasData(l) {
			header.Remove(l)
			removed = append(removed, l)
		}
		if progress != nil {
			progress.SetPercent(phasePercent(pruneStart, phaseSpan, i+1, len(labels)))
		}
	}
	if progress != nil {
		progress.SetPercent(pruneStart + phaseSpan)
	}
	return removed
}

type datalessScan struct {
	order  []string
	cursor int
	seen   *set.Set[string]
}

func (d *datalessScan) hasData(label string) bool {
	if d.seen.Contains(label) {
		return true
	}
	for d.cursor < len(d.order) {
		l := d.order[d.cursor]
		d.cursor++
		d.seen.Insert(l)
		if l == label {
			return true
		}
	}
	return false
}

// InsertSpacer puts DuplicateColumnSpacer before the first suffixed label.
// It reports whether a spacer was inserted.
func InsertSpacer(header *Header) bool {
	for i, l := range header.labels {
		if IsDuplicateLabel(l) {
			return header.InsertAt(i, DuplicateColumnSpacer)
		}
	}
	return false
}
