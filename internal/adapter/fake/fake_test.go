package fake

import (
	"context"
	"errors"
	"testing"

	"github.com/tuner-control/tcc/internal/adapter"
	"github.com/tuner-control/tcc/internal/adaptertest"
)

func TestFakeAdapter_Conformance(t *testing.T) {
	adaptertest.RunConformance(t, func() adapter.ITunerAdapter {
		return NewFakeAdapter("fake-01")
	})
}

func TestFakeAdapter_ErrorSimulation(t *testing.T) {
	tests := []struct {
		errorType string
		wantCode  error
	}{
		{"range", adapter.ErrInvalidRange},
		{"busy", adapter.ErrBusy},
		{"unavailable", adapter.ErrUnavailable},
		{"bogus", adapter.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.errorType, func(t *testing.T) {
			f := NewFakeAdapter("fake-01")
			f.SimulateError(tt.errorType)

			_, err := f.GetState(context.Background())
			if err == nil {
				t.Fatal("GetState succeeded with error simulation enabled")
			}

			normalized := adapter.NormalizeDriverErrorWithDriver(err, nil, "fis")
			if !errors.Is(normalized, tt.wantCode) {
				t.Errorf("simulated %q normalized to %v, want %v", tt.errorType, normalized, tt.wantCode)
			}
		})
	}
}

func TestFakeAdapter_ClearErrors(t *testing.T) {
	f := NewFakeAdapter("fake-01")
	f.SimulateError("busy")

	if _, err := f.StepUp(context.Background()); err == nil {
		t.Fatal("StepUp succeeded with error simulation enabled")
	}

	f.ClearErrors()

	state, err := f.RecallDefaults(context.Background())
	if err != nil {
		t.Fatalf("RecallDefaults failed after ClearErrors: %v", err)
	}
	if state.AMFrequency != 150.0 {
		t.Errorf("AMFrequency = %v, want 150.0", state.AMFrequency)
	}
}
