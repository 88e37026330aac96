package settings

import (
	"ertcli/internal/report"
	api "ertcli/pkg/contracts/api/v1"
)

// FromSpec builds a configuration from its API form. Filter properties are
// taken from the report columns that carry them.
func FromSpec(spec api.ConfigurationSpec) (*report.Configuration, error) {
	cols := make([]*report.Column, 0, len(spec.ReportColumns))
	for _, doc := range spec.ReportColumns {
		col, err := decodeColumn(doc)
		if err != nil {
			return nil, report.NewConfigurationError("configuration", err.Error())
		}
		cols = append(cols, col)
	}
	cfg := report.NewConfiguration(spec.FileName, cols...)
	cfg.EmptyCellValue = spec.EmptyCellValue
	cfg.ExcludeDatalessColumns = spec.ExcludeDatalessColumns
	cfg.RelocateDuplicateColumns = spec.RelocateDuplicateColumns
	cfg.UserName = spec.UserName

	var err error
	if cfg.MergeBy, err = optionalColumn(spec.MergeBy); err != nil {
		return nil, err
	}
	if cfg.SortBy, err = optionalColumn(spec.SortBy); err != nil {
		return nil, err
	}
	for _, doc := range spec.EventTypes {
		d := &report.EventTypeDisplay{EventType: eventType(doc.EventType), Enabled: doc.Enabled}
		for _, cd := range doc.Columns {
			col, err := decodeColumn(cd)
			if err != nil {
				return nil, report.NewConfigurationError("configuration", err.Error())
			}
			d.Columns = append(d.Columns, col)
		}
		cfg.EventTypes = append(cfg.EventTypes, d)
	}
	return cfg, nil
}

// ToSpec renders cfg in its API form.
func ToSpec(cfg *report.Configuration) (api.ConfigurationSpec, error) {
	spec := api.ConfigurationSpec{
		FileName:                 cfg.FileName,
		ReportColumns:            make([]api.ColumnSpec, 0, len(cfg.ReportColumns)),
		EmptyCellValue:           cfg.EmptyCellValue,
		ExcludeDatalessColumns:   cfg.ExcludeDatalessColumns,
		RelocateDuplicateColumns: cfg.RelocateDuplicateColumns,
		UserName:                 cfg.UserName,
	}
	for _, col := range cfg.ReportColumns {
		if col == nil {
			continue
		}
		doc, err := encodeColumn(withProperties(cfg, col))
		if err != nil {
			return spec, err
		}
		spec.ReportColumns = append(spec.ReportColumns, doc)
	}
	for _, pair := range []struct {
		src *report.Column
		dst **api.ColumnSpec
	}{{cfg.MergeBy, &spec.MergeBy}, {cfg.SortBy, &spec.SortBy}} {
		if pair.src == nil {
			continue
		}
		doc, err := encodeColumn(pair.src)
		if err != nil {
			return spec, err
		}
		*pair.dst = &doc
	}
	for _, et := range cfg.EventTypes {
		doc := api.EventTypeSpec{EventType: eventTypeInfo(et.EventType), Enabled: et.Enabled, Columns: []api.ColumnSpec{}}
		for _, col := range et.Columns {
			cd, err := encodeColumn(col)
			if err != nil {
				return spec, err
			}
			doc.Columns = append(doc.Columns, cd)
		}
		spec.EventTypes = append(spec.EventTypes, doc)
	}
	return spec, nil
}

// withProperties returns col carrying the filter configured for it.
func withProperties(cfg *report.Configuration, col *report.Column) *report.Column {
	prop, ok := cfg.ColumnProperties[col.Name]
	if !ok || col.Properties == prop {
		return col
	}
	cp := col.Clone()
	cp.Properties = prop
	return cp
}

func optionalColumn(doc *api.ColumnSpec) (*report.Column, error) {
	if doc == nil || doc.Name == "" {
		return nil, nil
	}
	col, err := decodeColumn(*doc)
	if err != nil {
		return nil, report.NewConfigurationError("configuration", err.Error())
	}
	return col, nil
}
