// Package fake provides a fake tuner adapter implementation for testing.
//
// Any adapter, including the in-process one, must pass the adaptertest
// conformance suite; the fake exists so higher layers can be tested with
// simulated backend failures.
package fake

import (
	"context"
	"fmt"

	"github.com/tuner-control/tcc/internal/adapter"
)

// FakeAdapter implements ITunerAdapter for testing purposes.
type FakeAdapter struct {
	adapter.AdapterBase

	// Current readings
	am          float64
	fm          float64
	initialized bool

	// Band configuration
	band adapter.Band

	// Error simulation
	simulateErrors bool
	errorType      string
}

var _ adapter.ITunerAdapter = (*FakeAdapter)(nil)

// NewFakeAdapter creates a new fake adapter with the standard band.
func NewFakeAdapter(tunerID string) *FakeAdapter {
	return &FakeAdapter{
		AdapterBase: adapter.AdapterBase{
			TunerID: tunerID,
			Model:   "Fake-Tuner-Test",
			Status:  "online",
		},
		band: adapter.Band{
			AMMin:  53.0,
			AMMax:  160.0,
			AMStep: 0.5,
			FMStep: 0.1,
		},
	}
}

// SimulateError makes every subsequent call fail with a driver error of
// the given type: "range", "busy", "unavailable", or anything else for an
// unrecognized token.
func (f *FakeAdapter) SimulateError(errorType string) {
	f.simulateErrors = true
	f.errorType = errorType
}

// ClearErrors disables error simulation.
func (f *FakeAdapter) ClearErrors() {
	f.simulateErrors = false
	f.errorType = ""
}

// GetState returns the current tuner readings.
func (f *FakeAdapter) GetState(ctx context.Context) (*adapter.TunerState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.simulateErrors {
		return nil, f.simulatedError()
	}
	return f.state(), nil
}

// RecallDefaults sets the factory frequency pair.
func (f *FakeAdapter) RecallDefaults(ctx context.Context) (*adapter.TunerState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.simulateErrors {
		return nil, f.simulatedError()
	}
	f.am = 150.0
	f.fm = 91.0
	f.initialized = true
	return f.state(), nil
}

// StepUp moves the readings up one step, guarding the AM ceiling.
func (f *FakeAdapter) StepUp(ctx context.Context) (*adapter.TunerState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.simulateErrors {
		return nil, f.simulatedError()
	}
	if f.am+f.band.AMStep <= f.band.AMMax {
		f.am += f.band.AMStep
		f.fm += f.band.FMStep
	}
	return f.state(), nil
}

// StepDown moves the readings down one step, guarding the AM floor.
func (f *FakeAdapter) StepDown(ctx context.Context) (*adapter.TunerState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.simulateErrors {
		return nil, f.simulatedError()
	}
	if f.am-f.band.AMStep >= f.band.AMMin {
		f.am -= f.band.AMStep
		f.fm -= f.band.FMStep
	}
	return f.state(), nil
}

// Band returns the configured band limits.
func (f *FakeAdapter) Band(ctx context.Context) (*adapter.Band, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.simulateErrors {
		return nil, f.simulatedError()
	}
	band := f.band
	return &band, nil
}

func (f *FakeAdapter) state() *adapter.TunerState {
	return &adapter.TunerState{
		AMFrequency: f.am,
		FMFrequency: f.fm,
		Initialized: f.initialized,
	}
}

func (f *FakeAdapter) simulatedError() error {
	switch f.errorType {
	case "range":
		return fmt.Errorf("FREQUENCY_OUT_OF_RANGE: simulated range error")
	case "busy":
		return fmt.Errorf("TUNER_BUSY: simulated busy error")
	case "unavailable":
		return fmt.Errorf("TUNER_OFFLINE: simulated unavailable error")
	default:
		return fmt.Errorf("SIMULATED_FAULT: unknown backend failure")
	}
}
