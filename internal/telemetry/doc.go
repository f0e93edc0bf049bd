// Package telemetry implements the SSE event hub for the Tuner Control
// Container.
//
// The hub fans events out to subscribed clients and keeps a bounded
// per-tuner buffer so reconnecting clients can resume from a
// Last-Event-ID header. Heartbeats run while at least one client is
// connected.
package telemetry
