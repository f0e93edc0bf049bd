// Package api implements the HTTP gateway for the Tuner Control
// Container.
//
// The gateway exposes northbound HTTP/JSON commands and the SSE telemetry
// endpoint, translating requests into orchestrator calls. All responses
// use a single envelope carrying a correlation ID.
package api
