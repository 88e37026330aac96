package report

import "fmt"

// Cell binds one value to one column. A cell's identity is its pointer.
type Cell struct {
	Value  string
	Column *Column
}

// NewCell creates a cell; the column is required.
func NewCell(value string, column *Column) (*Cell, error) {
	if column == nil {
		return nil, NewConfigurationError("cell", "cell column is required")
	}
	return &Cell{Value: value, Column: column}, nil
}

func (c *Cell) String() string {
	return fmt.Sprintf("%s=%q", c.Column.Name, c.Value)
}

// Row is one output record candidate. Cells may share a column; collisions are
// resolved when the header is built.
type Row struct {
	Cells []*Cell
}

// NewRow returns a row holding the given cells in order.
func NewRow(cells ...*Cell) *Row {
	return &Row{Cells: cells}
}

// AddCell appends a cell.
func (r *Row) AddCell(c *Cell) {
	r.Cells = append(r.Cells, c)
}

// Set appends a new cell for column with value.
func (r *Row) Set(column *Column, value string) *Cell {
	c := &Cell{Value: value, Column: column}
	r.AddCell(c)
	return c
}

// Cell returns the first cell for column.
func (r *Row) Cell(column *Column) (*Cell, bool) {
	for _, c := range r.Cells {
		if c.Column.Equal(column) {
			return c, true
		}
	}
	return nil, false
}

// HasColumn reports whether any cell references column.
func (r *Row) HasColumn(column *Column) bool {
	_, ok := r.Cell(column)
	return ok
}

// RemoveCells drops every cell matching pred and returns how many were removed.
func (r *Row) RemoveCells(pred func(*Cell) bool) int {
	kept := r.Cells[:0]
	removed := 0
	for _, c := range r.Cells {
		if pred(c) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(r.Cells); i++ {
		r.Cells[i] = nil
	}
	r.Cells = kept
	return removed
}

// Len returns the number of cells.
func (r *Row) Len() int { return len(r.Cells) }
