// Package validation checks report inputs and outputs up front so command
// line runs fail before any events are loaded.
package validation
