// Package adapter defines the ITunerAdapter southbound contract.
//
// Every tuner backend, in-process or otherwise, is driven through this
// interface, and every backend failure is normalized to one of the
// INVALID_RANGE, BUSY, UNAVAILABLE, INTERNAL codes.
package adapter

import (
	"context"
)

// TunerState represents the current readings of a tuner.
type TunerState struct {
	AMFrequency float64 `json:"amFrequency"`
	FMFrequency float64 `json:"fmFrequency"`
	Initialized bool    `json:"initialized"`
}

// Band describes the AM limits a tuner moves within and the coupled step
// sizes applied on each move.
type Band struct {
	AMMin  float64 `json:"amMin"`
	AMMax  float64 `json:"amMax"`
	AMStep float64 `json:"amStep"`
	FMStep float64 `json:"fmStep"`
}

// ITunerAdapter defines the stable southbound adapter contract.
//
// Step operations never report the band guard as an error: a step that
// would leave the band is absorbed by the device and the returned state
// simply equals the previous one. Errors are reserved for the backend
// itself failing (unreachable, busy, internal fault).
type ITunerAdapter interface {
	// GetState returns the current tuner readings.
	GetState(ctx context.Context) (*TunerState, error)

	// RecallDefaults sets the factory frequency pair and returns the
	// resulting state. It is the only way to initialize a fresh tuner.
	RecallDefaults(ctx context.Context) (*TunerState, error)

	// StepUp moves both readings up one coupled step, unless the move
	// would exceed the AM ceiling, and returns the resulting state.
	StepUp(ctx context.Context) (*TunerState, error)

	// StepDown moves both readings down one coupled step, unless the
	// move would pass the AM floor, and returns the resulting state.
	StepDown(ctx context.Context) (*TunerState, error)

	// Band returns the band limits and step sizes of the tuner.
	Band(ctx context.Context) (*Band, error)
}

// AdapterBase provides common identity fields for adapter implementations.
type AdapterBase struct {
	// TunerID identifies the tuner this adapter controls
	TunerID string

	// Model identifies the tuner model
	Model string

	// Status indicates the current tuner status
	Status string
}

// GetTunerID returns the tuner identifier.
func (a *AdapterBase) GetTunerID() string {
	return a.TunerID
}

// GetModel returns the tuner model.
func (a *AdapterBase) GetModel() string {
	return a.Model
}

// GetStatus returns the tuner status.
func (a *AdapterBase) GetStatus() string {
	return a.Status
}

// SetStatus updates the tuner status.
func (a *AdapterBase) SetStatus(status string) {
	a.Status = status
}
