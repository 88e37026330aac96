package report

import (
	"fmt"

	set "github.com/hashicorp/go-set/v2"
)

// DefaultEmptyCellValue is written for cells with no data.
const DefaultEmptyCellValue = ""

// EventType names one kind of normalized event.
type EventType struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
}

// EventTypeDisplay is the per-event-type column selection.
type EventTypeDisplay struct {
	EventType EventType
	Enabled   bool
	Columns   []*Column
}

// Configuration drives one report run.
type Configuration struct {
	// ReportColumns is the ordered column selection. Only enabled columns are
	// written to the header.
	ReportColumns []*Column
	// ColumnProperties holds filter properties keyed by column name.
	ColumnProperties map[string]ColumnProperty
	MergeBy          *Column
	SortBy           *Column
	EmptyCellValue   string

	ExcludeDatalessColumns   bool
	RelocateDuplicateColumns bool

	FileName  string
	OutputDir string
	UserName  string

	EventTypes []*EventTypeDisplay
}

// NewConfiguration returns a configuration over columns with properties taken
// from the columns themselves.
func NewConfiguration(fileName string, columns ...*Column) *Configuration {
	cfg := &Configuration{
		ReportColumns:    columns,
		ColumnProperties: make(map[string]ColumnProperty),
		EmptyCellValue:   DefaultEmptyCellValue,
		FileName:         fileName,
	}
	for _, c := range columns {
		if c != nil && c.Properties != nil {
			cfg.ColumnProperties[c.Name] = c.Properties
		}
	}
	return cfg
}

// Validate checks the fields every run needs.
func (c *Configuration) Validate() error {
	if c == nil {
		return NewConfigurationError("configuration", "configuration is required")
	}
	if c.FileName == "" {
		return NewConfigurationError("configuration", "output filename is required")
	}
	if c.ReportColumns == nil {
		return NewConfigurationError("configuration", "report column set is required")
	}
	labels := set.New[string](len(c.ReportColumns))
	for i, col := range c.ReportColumns {
		if col == nil {
			return NewConfigurationError("configuration", fmt.Sprintf("report column %d is nil", i))
		}
		if col.Name == "" {
			return NewConfigurationError("configuration", fmt.Sprintf("report column %d has no name", i))
		}
		if !col.Enabled {
			continue
		}
		if !labels.Insert(col.Label()) {
			return NewConfigurationError("configuration",
				fmt.Sprintf("enabled report columns have non-unique header %q", col.Label()))
		}
	}
	return nil
}

// EnabledColumns returns the enabled report columns in order.
func (c *Configuration) EnabledColumns() []*Column {
	out := make([]*Column, 0, len(c.ReportColumns))
	for _, col := range c.ReportColumns {
		if col != nil && col.Enabled {
			out = append(out, col)
		}
	}
	return out
}

// ReportColumn returns the configured column equal to col.
func (c *Configuration) ReportColumn(col *Column) (*Column, bool) {
	for _, rc := range c.ReportColumns {
		if rc.Equal(col) {
			return rc, true
		}
	}
	return nil, false
}

// IsColumnEnabled reports whether col is selected and enabled.
func (c *Configuration) IsColumnEnabled(col *Column) bool {
	rc, ok := c.ReportColumn(col)
	return ok && rc.Enabled
}

// AddColumns appends columns not already selected.
func (c *Configuration) AddColumns(cols ...*Column) {
	for _, col := range cols {
		if _, ok := c.ReportColumn(col); ok {
			continue
		}
		c.ReportColumns = append(c.ReportColumns, col)
		if col.Properties != nil {
			if c.ColumnProperties == nil {
				c.ColumnProperties = make(map[string]ColumnProperty)
			}
			c.ColumnProperties[col.Name] = col.Properties
		}
	}
}

// EventType returns the display settings for the named event type.
func (c *Configuration) EventType(name string) (*EventTypeDisplay, bool) {
	for _, et := range c.EventTypes {
		if et.EventType.Name == name {
			return et, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the configuration's lists and columns.
// Property values are shared.
func (c *Configuration) Clone() *Configuration {
	cp := *c
	cp.ReportColumns = cloneColumns(c.ReportColumns)
	cp.ColumnProperties = make(map[string]ColumnProperty, len(c.ColumnProperties))
	for k, v := range c.ColumnProperties {
		cp.ColumnProperties[k] = v
	}
	if c.MergeBy != nil {
		cp.MergeBy = c.MergeBy.Clone()
	}
	if c.SortBy != nil {
		cp.SortBy = c.SortBy.Clone()
	}
	cp.EventTypes = make([]*EventTypeDisplay, len(c.EventTypes))
	for i, et := range c.EventTypes {
		d := *et
		d.Columns = cloneColumns(et.Columns)
		cp.EventTypes[i] = &d
	}
	return &cp
}

func cloneColumns(cols []*Column) []*Column {
	if cols == nil {
		return nil
	}
	out := make([]*Column, len(cols))
	for i, col := range cols {
		if col != nil {
			out[i] = col.Clone()
		}
	}
	return out
}
