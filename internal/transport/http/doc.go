// Package http provides the HTTP transport layer for the report service.
//
// # Routes
//
//	GET    /healthz                         service and queue health
//	GET    /metrics                         Prometheus metrics
//	POST   /api/v1/reports                  submit a report job (202)
//	GET    /api/v1/reports                  list jobs, newest first
//	GET    /api/v1/reports/{id}             job status and progress
//	DELETE /api/v1/reports/{id}             cancel a pending job or remove a finished one
//	GET    /api/v1/reports/{id}/archive     download the report archive
//	GET    /api/v1/reports/{id}/ws          live progress over WebSocket
//	GET    /api/v1/settings                 list saved settings
//	GET    /api/v1/settings/{name}          read saved settings
//	PUT    /api/v1/settings/{name}          save settings
//
// # Errors
//
// Every failure is answered with an RFC 7807 problem document built by
// internal/errors. Report engine errors keep their type and phase as
// extensions.
//
// # Middleware
//
// Requests pass through request ID assignment, OpenTelemetry tracing,
// structured access logging and panic recovery. The /api/v1 routes are
// rate limited when enabled in configuration.
package http
