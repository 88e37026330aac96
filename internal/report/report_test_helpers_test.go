package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// row builds a row from alternating column/value pairs.
func row(t *testing.T, pairs ...interface{}) *Row {
	t.Helper()
	require.Zero(t, len(pairs)%2, "pairs must be column/value")
	r := NewRow()
	for i := 0; i < len(pairs); i += 2 {
		col, ok := pairs[i].(*Column)
		require.True(t, ok, "pair %d is not a column", i)
		r.Set(col, pairs[i+1].(string))
	}
	return r
}

func values(r *Row, col *Column) []string {
	var out []string
	for _, c := range r.Cells {
		if c.Column.Equal(col) {
			out = append(out, c.Value)
		}
	}
	return out
}
