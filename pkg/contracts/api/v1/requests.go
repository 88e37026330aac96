// Package api contains the request and response contracts of the report API.
// Version v1 represents the current stable API version.
package api

// Report column and filter contracts. The same JSON shapes are stored in
// settings files.

// PropertySpec is a column filter property.
type PropertySpec struct {
	Type    string `json:"type" validate:"required,oneof=min_max time_window"`
	Min     *int64 `json:"min,omitempty"`
	Max     *int64 `json:"max,omitempty"`
	StartMS *int64 `json:"startMs,omitempty"`
	EndMS   *int64 `json:"endMs,omitempty"`
}

// ColumnSpec is one report column.
type ColumnSpec struct {
	Name        string        `json:"name" validate:"required"`
	DisplayName string        `json:"displayName"`
	Enabled     bool          `json:"enabled"`
	Properties  *PropertySpec `json:"properties,omitempty" validate:"omitempty"`
}

// EventTypeInfo names one kind of event.
type EventTypeInfo struct {
	Name        string `json:"name" validate:"required"`
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
}

// EventTypeSpec is the column selection for one event type.
type EventTypeSpec struct {
	EventType EventTypeInfo `json:"eventType" validate:"required"`
	Enabled   bool          `json:"enabled"`
	Columns   []ColumnSpec  `json:"columns" validate:"dive"`
}

// ConfigurationSpec drives one report run.
type ConfigurationSpec struct {
	FileName                 string          `json:"fileName" validate:"required,reportfile"`
	ReportColumns            []ColumnSpec    `json:"reportColumns" validate:"required,min=1,dive"`
	MergeBy                  *ColumnSpec     `json:"mergeBy,omitempty" validate:"omitempty"`
	SortBy                   *ColumnSpec     `json:"sortBy,omitempty" validate:"omitempty"`
	EmptyCellValue           string          `json:"emptyCellValue"`
	ExcludeDatalessColumns   bool            `json:"excludeDatalessColumns"`
	RelocateDuplicateColumns bool            `json:"relocateDuplicateColumns"`
	UserName                 string          `json:"userName,omitempty"`
	EventTypes               []EventTypeSpec `json:"eventTypes,omitempty" validate:"dive"`
}

// Report API Requests

// EventRecord is one normalized event.
type EventRecord struct {
	EventType string            `json:"event_type"`
	Values    map[string]string `json:"values" validate:"required"`
}

// CreateReportRequest starts an asynchronous report job. Events come inline
// or from a file or directory under the configured events directory. A named
// settings file, when given, is applied over the configuration.
type CreateReportRequest struct {
	Name          string            `json:"name,omitempty" validate:"omitempty,max=128"`
	Configuration ConfigurationSpec `json:"configuration" validate:"required"`
	Settings      string            `json:"settings,omitempty" validate:"omitempty,filename"`
	Events        []EventRecord     `json:"events,omitempty" validate:"required_without=EventsPath,dive"`
	EventsPath    string            `json:"events_path,omitempty" validate:"required_without=Events"`
	Format        string            `json:"format,omitempty" validate:"omitempty,oneof=csv xlsx"`
}

// ReportListRequest filters the job list.
type ReportListRequest struct {
	Status string `json:"status" query:"status" validate:"omitempty,oneof=pending running completed failed cancelled"`
	Limit  int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=1000"`
}

// Settings API Requests

// SaveSettingsRequest stores a configuration under a name.
type SaveSettingsRequest struct {
	Configuration ConfigurationSpec `json:"configuration" validate:"required"`
}
