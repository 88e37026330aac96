// Package app wires the report service together and manages its lifecycle.
//
// NewApplication builds, in order: OpenTelemetry providers and service
// metrics, the job queue, the settings store, the report and health
// services, the router and the HTTP server. Run serves until the context is
// cancelled, running the job retention cleanup alongside the server, then
// shuts the server, the queue and the telemetry providers down.
package app
