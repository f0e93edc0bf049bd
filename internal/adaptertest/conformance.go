// Package adaptertest provides backend-agnostic conformance testing for
// tuner adapters.
//
// Any adapter wired into the container must pass this suite: it pins the
// factory defaults, the coupled step sizes, the look-ahead band guards,
// and the silent absorption of out-of-band steps.
package adaptertest

import (
	"context"
	"math"
	"testing"

	"github.com/tuner-control/tcc/internal/adapter"
)

const eps = 1e-9

// RunConformance runs the complete conformance suite against adapters
// produced by newAdapter. Each subtest receives a fresh adapter.
func RunConformance(t *testing.T, newAdapter func() adapter.ITunerAdapter) {
	t.Run("FreshStateIsZero", func(t *testing.T) {
		ta := newAdapter()
		state, err := ta.GetState(context.Background())
		if err != nil {
			t.Fatalf("GetState() failed: %v", err)
		}
		requireFrequencies(t, state, 0.0, 0.0)
		if state.Initialized {
			t.Error("fresh adapter reports initialized")
		}
	})

	t.Run("BandLimits", func(t *testing.T) {
		ta := newAdapter()
		band, err := ta.Band(context.Background())
		if err != nil {
			t.Fatalf("Band() failed: %v", err)
		}
		if band.AMMin != 53.0 || band.AMMax != 160.0 {
			t.Errorf("unexpected AM band [%v, %v]", band.AMMin, band.AMMax)
		}
		if band.AMStep != 0.5 || band.FMStep != 0.1 {
			t.Errorf("unexpected steps am=%v fm=%v", band.AMStep, band.FMStep)
		}
	})

	t.Run("RecallDefaults", func(t *testing.T) {
		ta := newAdapter()
		state, err := ta.RecallDefaults(context.Background())
		if err != nil {
			t.Fatalf("RecallDefaults() failed: %v", err)
		}
		requireFrequencies(t, state, 150.0, 91.0)
		if !state.Initialized {
			t.Error("adapter not initialized after recall")
		}
	})

	t.Run("StepScenario", func(t *testing.T) {
		ta := newAdapter()
		ctx := context.Background()

		if _, err := ta.RecallDefaults(ctx); err != nil {
			t.Fatalf("RecallDefaults() failed: %v", err)
		}

		state, err := ta.StepUp(ctx)
		if err != nil {
			t.Fatalf("StepUp() failed: %v", err)
		}
		requireFrequencies(t, state, 150.5, 91.1)

		state, err = ta.StepDown(ctx)
		if err != nil {
			t.Fatalf("StepDown() failed: %v", err)
		}
		requireFrequencies(t, state, 150.0, 91.0)

		state, err = ta.StepDown(ctx)
		if err != nil {
			t.Fatalf("StepDown() failed: %v", err)
		}
		requireFrequencies(t, state, 149.5, 90.9)
	})

	t.Run("CeilingPlateau", func(t *testing.T) {
		ta := newAdapter()
		ctx := context.Background()

		if _, err := ta.RecallDefaults(ctx); err != nil {
			t.Fatalf("RecallDefaults() failed: %v", err)
		}

		// Twenty steps from 150.0 land exactly on 160.0; further steps
		// must be absorbed without error.
		var state *adapter.TunerState
		var err error
		for i := 0; i < 25; i++ {
			state, err = ta.StepUp(ctx)
			if err != nil {
				t.Fatalf("StepUp() #%d failed: %v", i+1, err)
			}
			if state.AMFrequency > 160.0+eps {
				t.Fatalf("AM exceeded ceiling: %v", state.AMFrequency)
			}
		}
		requireFrequencies(t, state, 160.0, 93.0)
	})

	t.Run("FloorBlock", func(t *testing.T) {
		ta := newAdapter()
		ctx := context.Background()

		if _, err := ta.RecallDefaults(ctx); err != nil {
			t.Fatalf("RecallDefaults() failed: %v", err)
		}

		// 194 steps reach the floor at 53.0; the rest must be absorbed.
		var state *adapter.TunerState
		var err error
		for i := 0; i < 200; i++ {
			state, err = ta.StepDown(ctx)
			if err != nil {
				t.Fatalf("StepDown() #%d failed: %v", i+1, err)
			}
			if state.AMFrequency < 53.0-eps {
				t.Fatalf("AM passed floor: %v", state.AMFrequency)
			}
		}
		if math.Abs(state.AMFrequency-53.0) > eps {
			t.Errorf("expected AM plateau at 53.0, got %v", state.AMFrequency)
		}
	})

	t.Run("UninitializedStepDown", func(t *testing.T) {
		ta := newAdapter()
		state, err := ta.StepDown(context.Background())
		if err != nil {
			t.Fatalf("StepDown() failed: %v", err)
		}
		// Only the floor is guarded; from zero the prospective value is
		// below it, so the readings stay frozen.
		requireFrequencies(t, state, 0.0, 0.0)
	})

	t.Run("UninitializedStepUp", func(t *testing.T) {
		ta := newAdapter()
		state, err := ta.StepUp(context.Background())
		if err != nil {
			t.Fatalf("StepUp() failed: %v", err)
		}
		// The ceiling guard does not reject values below the floor, so
		// stepping up from zero is permitted.
		requireFrequencies(t, state, 0.5, 0.1)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ta := newAdapter()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := ta.GetState(ctx); err == nil {
			t.Error("GetState() with cancelled context did not fail")
		}
	})
}

func requireFrequencies(t *testing.T, state *adapter.TunerState, am, fm float64) {
	t.Helper()
	if state == nil {
		t.Fatal("nil state")
	}
	if math.Abs(state.AMFrequency-am) > eps {
		t.Errorf("expected AM %v, got %v", am, state.AMFrequency)
	}
	if math.Abs(state.FMFrequency-fm) > eps {
		t.Errorf("expected FM %v, got %v", fm, state.FMFrequency)
	}
}
