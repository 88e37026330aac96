package settings

import (
	"encoding/json"
	"fmt"
	"time"

	"ertcli/internal/report"
	api "ertcli/pkg/contracts/api/v1"
)

type (
	columnDoc   = api.ColumnSpec
	propertyDoc = api.PropertySpec
	eventDoc    = api.EventTypeSpec
)

func encodeColumn(c *report.Column) (columnDoc, error) {
	doc := columnDoc{Name: c.Name, DisplayName: c.DisplayName, Enabled: c.Enabled}
	if c.Properties == nil {
		return doc, nil
	}
	switch p := c.Properties.(type) {
	case *report.MinMaxProperty:
		doc.Properties = &propertyDoc{Type: string(report.PropertyMinMax), Min: p.Min, Max: p.Max}
	case *report.TimeWindowProperty:
		start, end := p.Start.Milliseconds(), p.End.Milliseconds()
		doc.Properties = &propertyDoc{Type: string(report.PropertyTimeWindow), StartMS: &start, EndMS: &end}
	default:
		return doc, fmt.Errorf("column %s has unknown property kind %q", c.Name, c.Properties.Kind())
	}
	return doc, nil
}

func decodeColumn(doc columnDoc) (*report.Column, error) {
	col, err := report.NewColumn(doc.Name, doc.DisplayName)
	if err != nil {
		return nil, err
	}
	col.Enabled = doc.Enabled
	if doc.Properties == nil {
		return col, nil
	}
	switch report.PropertyKind(doc.Properties.Type) {
	case report.PropertyMinMax:
		col.Properties = report.NewMinMaxProperty(doc.Properties.Min, doc.Properties.Max)
	case report.PropertyTimeWindow:
		tw := &report.TimeWindowProperty{}
		if doc.Properties.StartMS != nil {
			tw.Start = time.Duration(*doc.Properties.StartMS) * time.Millisecond
		}
		if doc.Properties.EndMS != nil {
			tw.End = time.Duration(*doc.Properties.EndMS) * time.Millisecond
		}
		col.Properties = tw
	default:
		return nil, fmt.Errorf("column %s has unknown property type %q", doc.Name, doc.Properties.Type)
	}
	return col, nil
}

func encodeColumns(cols []*report.Column) (string, error) {
	docs := make([]columnDoc, 0, len(cols))
	for _, c := range cols {
		if c == nil {
			continue
		}
		doc, err := encodeColumn(c)
		if err != nil {
			return "", err
		}
		docs = append(docs, doc)
	}
	return marshal(docs)
}

func decodeColumns(raw string) ([]*report.Column, error) {
	var docs []columnDoc
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, err
	}
	cols := make([]*report.Column, 0, len(docs))
	for _, doc := range docs {
		col, err := decodeColumn(doc)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func encodeEvents(events []*report.EventTypeDisplay) (string, error) {
	docs := make([]eventDoc, 0, len(events))
	for _, et := range events {
		doc := eventDoc{EventType: eventTypeInfo(et.EventType), Enabled: et.Enabled, Columns: []columnDoc{}}
		for _, c := range et.Columns {
			cd, err := encodeColumn(c)
			if err != nil {
				return "", err
			}
			doc.Columns = append(doc.Columns, cd)
		}
		docs = append(docs, doc)
	}
	return marshal(docs)
}

func decodeEvents(raw string) ([]*report.EventTypeDisplay, error) {
	var docs []eventDoc
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, err
	}
	out := make([]*report.EventTypeDisplay, 0, len(docs))
	for _, doc := range docs {
		d := &report.EventTypeDisplay{EventType: eventType(doc.EventType), Enabled: doc.Enabled}
		for _, cd := range doc.Columns {
			col, err := decodeColumn(cd)
			if err != nil {
				return nil, err
			}
			d.Columns = append(d.Columns, col)
		}
		out = append(out, d)
	}
	return out, nil
}

func decodeJSON(raw string, v interface{}) error {
	return json.Unmarshal([]byte(raw), v)
}

func marshal(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func eventTypeInfo(et report.EventType) api.EventTypeInfo {
	return api.EventTypeInfo{Name: et.Name, DisplayName: et.DisplayName, Description: et.Description}
}

func eventType(info api.EventTypeInfo) report.EventType {
	return report.EventType{Name: info.Name, DisplayName: info.DisplayName, Description: info.Description}
}
