package report

import (
	"fmt"
	"strings"
	"time"
)

// PropertyKind identifies the kind of filter property attached to a column.
type PropertyKind string

const (
	PropertyMinMax     PropertyKind = "min_max"
	PropertyTimeWindow PropertyKind = "time_window"
)

// ColumnProperty is a per-column filter payload.
type ColumnProperty interface {
	Kind() PropertyKind
}

// MinMaxProperty bounds a numeric column. Either bound may be nil.
// Bounds applied to time columns are expressed in milliseconds.
type MinMaxProperty struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

// NewMinMaxProperty returns a range with the given optional bounds.
func NewMinMaxProperty(min, max *int64) *MinMaxProperty {
	return &MinMaxProperty{Min: min, Max: max}
}

// Kind implements ColumnProperty.
func (p *MinMaxProperty) Kind() PropertyKind { return PropertyMinMax }

// SetMin replaces the lower bound; nil clears it.
func (p *MinMaxProperty) SetMin(v *int64) { p.Min = v }

// SetMax replaces the upper bound; nil clears it.
func (p *MinMaxProperty) SetMax(v *int64) { p.Max = v }

// Violates reports whether v falls outside the range.
func (p *MinMaxProperty) Violates(v int64) bool {
	if p.Min != nil && v < *p.Min {
		return true
	}
	return p.Max != nil && v > *p.Max
}

func (p *MinMaxProperty) String() string {
	return fmt.Sprintf("MinMax[min=%s max=%s]", boundString(p.Min), boundString(p.Max))
}

func boundString(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

// TimeWindowProperty restricts events to a window relative to the session start.
// It is persisted with the settings but the row filter does not evaluate it.
type TimeWindowProperty struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
}

// Kind implements ColumnProperty.
func (p *TimeWindowProperty) Kind() PropertyKind { return PropertyTimeWindow }

func (p *TimeWindowProperty) String() string {
	return fmt.Sprintf("TimeWindow[%s..%s]", p.Start, p.End)
}

// Int64 returns a pointer to v, for building bounds inline.
func Int64(v int64) *int64 { return &v }

// Column is a named slot in the report schema. Identity is the internal name;
// the display name only determines the output label.
type Column struct {
	Name        string
	DisplayName string
	Enabled     bool
	Properties  ColumnProperty
}

// NewColumn creates an enabled column. The internal name is required.
func NewColumn(name, displayName string) (*Column, error) {
	if name == "" {
		return nil, NewConfigurationError("column", "column name is required")
	}
	if displayName == "" {
		displayName = name
	}
	return &Column{Name: name, DisplayName: displayName, Enabled: true}, nil
}

// MustColumn is NewColumn for static column tables; it panics on an empty name.
func MustColumn(name, displayName string) *Column {
	c, err := NewColumn(name, displayName)
	if err != nil {
		panic(err)
	}
	return c
}

// Equal compares columns by internal name.
func (c *Column) Equal(other *Column) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Name == other.Name
}

// Label is the display name with spaces replaced by underscores.
func (c *Column) Label() string {
	return strings.ReplaceAll(c.DisplayName, " ", "_")
}

// Clone returns a copy that shares the property value.
func (c *Column) Clone() *Column {
	cp := *c
	return &cp
}

func (c *Column) String() string {
	return fmt.Sprintf("%s(%s)", c.Name, c.DisplayName)
}
