// Ports (interfaces) for API server dependencies.
package api

import (
	"context"
	"net/http"

	"github.com/tuner-control/tcc/internal/adapter"
	"github.com/tuner-control/tcc/internal/command"
	"github.com/tuner-control/tcc/internal/telemetry"
	"github.com/tuner-control/tcc/internal/tuner"
)

// OrchestratorPort defines the minimal interface the API needs from the
// orchestrator.
type OrchestratorPort interface {
	SelectTuner(ctx context.Context, tunerID string) error
	GetState(ctx context.Context, tunerID string) (*adapter.TunerState, error)
	Recall(ctx context.Context, tunerID string) (*adapter.TunerState, error)
	Step(ctx context.Context, tunerID string, direction command.Direction) (*adapter.TunerState, error)
	TuneToStation(ctx context.Context, tunerID string, station string) (*adapter.TunerState, error)
}

// TelemetryPort defines the minimal interface the API needs from the
// telemetry hub.
type TelemetryPort interface {
	Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// TunerReadPort defines the minimal interface for tuner read operations.
type TunerReadPort interface {
	GetTuner(tunerID string) (*tuner.Entry, error)
	List() *tuner.EntryList
}

// Compile-time assertions for port conformance
var _ OrchestratorPort = (*command.Orchestrator)(nil)
var _ TelemetryPort = (*telemetry.Hub)(nil)
var _ TunerReadPort = (*tuner.Manager)(nil)
