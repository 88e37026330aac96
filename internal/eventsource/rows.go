package eventsource

import (
	"ertcli/internal/report"
)

// BuildRows turns events into report rows for cfg. Events whose type is
// disabled in cfg are dropped. Each row holds one cell per configured column
// the event has a value for, in report column order; the event type fills the
// event type column.
func BuildRows(events []Event, cfg *report.Configuration) []*report.Row {
	rows := make([]*report.Row, 0, len(events))
	for _, ev := range events {
		if !eventTypeEnabled(cfg, ev.Type) {
			continue
		}
		row := report.NewRow()
		for _, col := range cfg.ReportColumns {
			v, ok := ev.Values[col.Name]
			if !ok && col.Equal(report.EventTypeColumn) && ev.Type != "" {
				v, ok = ev.Type, true
			}
			if ok {
				row.Set(col, v)
			}
		}
		if row.Len() > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

func eventTypeEnabled(cfg *report.Configuration, name string) bool {
	if name == "" {
		return true
	}
	et, ok := cfg.EventType(name)
	return !ok || et.Enabled
}
