// Package settings persists report configurations as flat key/value
// properties files whose column selections are JSON documents.
//
// Encode/Save write the sidecar bundled with every report; Decode/Load read one
// back into an existing configuration. Store manages named settings files in a
// directory for reuse across reports.
package settings
