// Package memtuner provides the in-process tuner adapter.
//
// The backing device is a tuner.Tuner owned by this adapter; there is no
// wire protocol. Band-guarded steps are absorbed by the device, so step
// calls can only fail on context cancellation.
package memtuner

import (
	"context"

	"github.com/tuner-control/tcc/internal/adapter"
	"github.com/tuner-control/tcc/internal/tuner"
)

// Adapter implements adapter.ITunerAdapter over an in-process tuner.
type Adapter struct {
	adapter.AdapterBase

	dev *tuner.Tuner
}

var _ adapter.ITunerAdapter = (*Adapter)(nil)

// New creates an in-process adapter around a fresh, uninitialized tuner.
func New(tunerID string) *Adapter {
	return &Adapter{
		AdapterBase: adapter.AdapterBase{
			TunerID: tunerID,
			Model:   "FIS-AMFM",
			Status:  "online",
		},
		dev: tuner.New(),
	}
}

// NewWithTuner creates an adapter around an existing tuner.
func NewWithTuner(tunerID string, dev *tuner.Tuner) *Adapter {
	a := New(tunerID)
	a.dev = dev
	return a
}

// GetState returns the current tuner readings.
func (a *Adapter) GetState(ctx context.Context) (*adapter.TunerState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.state(), nil
}

// RecallDefaults sets the factory frequency pair.
func (a *Adapter) RecallDefaults(ctx context.Context) (*adapter.TunerState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.dev.RecallDefaults()
	return a.state(), nil
}

// StepUp moves the readings up one coupled step if the AM ceiling allows.
func (a *Adapter) StepUp(ctx context.Context) (*adapter.TunerState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.dev.StepUp()
	return a.state(), nil
}

// StepDown moves the readings down one coupled step if the AM floor allows.
func (a *Adapter) StepDown(ctx context.Context) (*adapter.TunerState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.dev.StepDown()
	return a.state(), nil
}

// Band returns the fixed band limits of the device.
func (a *Adapter) Band(ctx context.Context) (*adapter.Band, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &adapter.Band{
		AMMin:  tuner.AMMin,
		AMMax:  tuner.AMMax,
		AMStep: tuner.AMStep,
		FMStep: tuner.FMStep,
	}, nil
}

func (a *Adapter) state() *adapter.TunerState {
	snap := a.dev.Snapshot()
	return &adapter.TunerState{
		AMFrequency: snap.AMFrequency,
		FMFrequency: snap.FMFrequency,
		Initialized: a.dev.Initialized(),
	}
}
