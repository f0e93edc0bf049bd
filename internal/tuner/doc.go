// Package tuner implements the tuner device model and inventory manager
// for the Tuner Control Container.
//
// A Tuner holds a paired AM/FM frequency reading that is publicly readable
// but mutable only through the tuner's own operations: recall defaults,
// step up, step down. Steps that would leave the AM band are silently
// rejected. The Manager maintains the tuner inventory and the active
// selection used by the orchestrator.
package tuner
