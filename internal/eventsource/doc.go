// Package eventsource loads normalized events for report generation.
//
// Events are read from JSON Lines files, one object per line:
//
//	{"event_type":"lesson_complete","values":{"user_id":5,"time":"12.5","content":"A"}}
//
// or from the first worksheet of an XLSX workbook whose first row names the
// columns. A Catalog records the columns and event types seen so a report
// configuration can be completed from the data, and BuildRows converts the
// events into report rows for a configuration.
package eventsource
