package eventsource

import (
	"sync"

	"ertcli/internal/report"
)

// Catalog records the columns and event types seen while loading events.
// Columns are created on first sight and reused afterwards, so every row built
// from the catalog shares the same column values.
type Catalog struct {
	mu        sync.Mutex
	columns   map[string]*report.Column
	order     []string
	types     map[string]report.EventType
	typeOrder []string
}

// NewCatalog returns a catalog seeded with the domain session columns and the
// participant column.
func NewCatalog() *Catalog {
	c := &Catalog{
		columns: make(map[string]*report.Column),
		types:   make(map[string]report.EventType),
	}
	for _, col := range append(report.DomainSessionColumns(), report.ParticipantIDColumn.Clone()) {
		c.add(col)
	}
	return c
}

func (c *Catalog) add(col *report.Column) {
	c.columns[col.Name] = col
	c.order = append(c.order, col.Name)
}

// Column returns the column named name, creating it when first seen.
func (c *Catalog) Column(name string) (*report.Column, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if col, ok := c.columns[name]; ok {
		return col, nil
	}
	col, err := report.NewColumn(name, name)
	if err != nil {
		return nil, err
	}
	c.add(col)
	return col, nil
}

// Columns returns the known columns in the order they were first seen.
func (c *Catalog) Columns() []*report.Column {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*report.Column, len(c.order))
	for i, name := range c.order {
		out[i] = c.columns[name]
	}
	return out
}

// ObserveEventType records name as a known event type.
func (c *Catalog) ObserveEventType(name string) {
	if name == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.types[name]; ok {
		return
	}
	c.types[name] = report.EventType{Name: name, DisplayName: name}
	c.typeOrder = append(c.typeOrder, name)
}

// EventTypes returns the observed event types in order of first sight.
func (c *Catalog) EventTypes() []report.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]report.EventType, len(c.typeOrder))
	for i, name := range c.typeOrder {
		out[i] = c.types[name]
	}
	return out
}

// Prepare fills the parts of cfg the user has not chosen: an empty column
// selection becomes every catalog column, and observed event types missing
// from cfg are added enabled.
func (c *Catalog) Prepare(cfg *report.Configuration) {
	if len(cfg.ReportColumns) == 0 {
		cols := c.Columns()
		selected := make([]*report.Column, len(cols))
		for i, col := range cols {
			selected[i] = col.Clone()
		}
		cfg.ReportColumns = nil
		cfg.AddColumns(selected...)
	}
	for _, et := range c.EventTypes() {
		if _, ok := cfg.EventType(et.Name); ok {
			continue
		}
		cfg.EventTypes = append(cfg.EventTypes, &report.EventTypeDisplay{EventType: et, Enabled: true})
	}
}
