package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareValues(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},
		{"10", "2", 1},
		{"1.50", "1.5", 0},
		{"-1", "0.5", -1},
		{"b", "a", 1},
		{"10", "9a", -1},
		{"abc", "abc", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareValues(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestSortRows(t *testing.T) {
	score := MustColumn("score", "Score")
	a := row(t, score, "10")
	b := row(t, score, "9")
	missing := row(t, ContentColumn, "x")
	c := row(t, score, "9")

	rows := []*Row{a, missing, b, c}
	SortRows(rows, score)
	assert.Equal(t, []*Row{b, c, a, missing}, rows)
}

func TestSortRows_NilColumn(t *testing.T) {
	a := row(t, ContentColumn, "b")
	b := row(t, ContentColumn, "a")
	rows := []*Row{a, b}
	SortRows(rows, nil)
	assert.Equal(t, []*Row{a, b}, rows)
}
