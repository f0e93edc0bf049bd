// Package audit implements the audit trail for the Tuner Control
// Container.
//
// Every orchestrated command is recorded as an append-only JSON line with
// user, tuner ID, action, outcome, and latency. The underlying file is
// size-rotated via lumberjack.
package audit
