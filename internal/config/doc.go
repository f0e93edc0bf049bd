// Package config implements the configuration store for the Tuner Control
// Container.
//
// Configuration is resolved in three layers: built-in baseline defaults,
// an optional config.yaml, and TCC_* environment overrides, in that
// order. The package also loads and validates the station preset file
// used for seek-to-station tuning.
package config
