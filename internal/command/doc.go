// Package command implements the command orchestrator for the Tuner
// Control Container.
//
// The orchestrator validates intents, routes them to the right tuner
// adapter under per-command timeouts, writes audit records, and emits
// telemetry events. Band-guarded steps that change nothing succeed
// silently: the caller sees the unchanged state and no event is emitted.
package command
