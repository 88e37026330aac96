package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterValue(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{in: "1.5", want: 1500, wantOK: true},
		{in: "0.0019", want: 1, wantOK: true},
		{in: "900", want: 900, wantOK: true},
		{in: " -3 ", want: -3, wantOK: true},
		{in: "abc", wantOK: false},
		{in: "1.2.3", wantOK: false},
		{in: "", wantOK: false},
		{in: "10000000000000000000.0", want: math.MaxInt64, wantOK: true},
		{in: "-10000000000000000000.0", want: math.MinInt64, wantOK: true},
		{in: "99999999999999999999", want: math.MaxInt64, wantOK: true},
		{in: "-99999999999999999999", want: math.MinInt64, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := FilterValue(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFilterRows_SecondsAgainstMillisecondBound(t *testing.T) {
	elapsed := MustColumn("elapsed", "Elapsed")
	props := map[string]ColumnProperty{elapsed.Name: NewMinMaxProperty(nil, Int64(1000))}

	seconds := row(t, elapsed, "1.5")
	raw := row(t, elapsed, "900")
	without := row(t, ContentColumn, "x")
	hugeSeconds := row(t, elapsed, "10000000000000000000.0")
	hugeRaw := row(t, elapsed, "99999999999999999999")

	kept, stats, err := FilterRows([]*Row{seconds, raw, without, hugeSeconds, hugeRaw}, props, nil)
	require.NoError(t, err)
	assert.Equal(t, []*Row{raw, without}, kept)
	assert.Equal(t, 3, stats.Removed)
	assert.Zero(t, stats.Unparsed)
}

func TestFilterRows_UnparsedValuesKept(t *testing.T) {
	score := MustColumn("score", "Score")
	props := map[string]ColumnProperty{score.Name: NewMinMaxProperty(Int64(0), Int64(10))}

	kept, stats, err := FilterRows([]*Row{row(t, score, "n/a")}, props, nil)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
	assert.Equal(t, 1, stats.Unparsed)
	assert.Zero(t, stats.Removed)
}

func TestFilterRows_UnsupportedKindIsFatal(t *testing.T) {
	props := map[string]ColumnProperty{TimeColumn.Name: &TimeWindowProperty{}}

	kept, _, err := FilterRows([]*Row{row(t, TimeColumn, "1.0")}, props, nil)
	require.Error(t, err)
	assert.Nil(t, kept)
	assert.Equal(t, ErrorTypeUnsupportedFilter, TypeOf(err))
	assert.True(t, IsFatal(err))
}

func TestFilterRows_ReturnsNewList(t *testing.T) {
	score := MustColumn("score", "Score")
	props := map[string]ColumnProperty{score.Name: NewMinMaxProperty(Int64(5), nil)}
	rows := []*Row{row(t, score, "1"), row(t, score, "7")}
	first := rows[0]

	kept, _, err := FilterRows(rows, props, nil)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Same(t, first, rows[0], "input slice must not be modified")
}

func TestFilterRows_Progress(t *testing.T) {
	status := NewProgressStatus()
	_, _, err := FilterRows([]*Row{row(t, ContentColumn, "a")}, nil, status)
	require.NoError(t, err)
	assert.Equal(t, filterPercent, status.Percent())
	assert.Equal(t, PhaseFilter, status.Snapshot().Phase)
}
