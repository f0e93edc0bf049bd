// Ports (interfaces) for orchestrator dependencies.
package command

import (
	"context"
	"errors"
	"time"

	"github.com/tuner-control/tcc/internal/adapter"
	"github.com/tuner-control/tcc/internal/tuner"
)

// Direction of a step command.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// OrchestratorPort defines the minimal interface the API needs from the
// orchestrator.
type OrchestratorPort interface {
	SelectTuner(ctx context.Context, tunerID string) error
	GetState(ctx context.Context, tunerID string) (*adapter.TunerState, error)
	Recall(ctx context.Context, tunerID string) (*adapter.TunerState, error)
	Step(ctx context.Context, tunerID string, direction Direction) (*adapter.TunerState, error)
	TuneToStation(ctx context.Context, tunerID string, station string) (*adapter.TunerState, error)
}

// TunerManager is the inventory interface the orchestrator routes through.
type TunerManager interface {
	GetTuner(tunerID string) (*tuner.Entry, error)
	GetAdapter(tunerID string) (adapter.ITunerAdapter, error)
	SetActive(tunerID string) error
	UpdateState(tunerID string, state *adapter.TunerState) error
}

// AuditLogger is the audit sink interface.
type AuditLogger interface {
	LogAction(ctx context.Context, action, tunerID, outcome string, latency time.Duration)
}

// Sentinel errors surfaced to the API layer.
var (
	// ErrNotFound indicates a requested tuner was not found.
	ErrNotFound = errors.New("NOT_FOUND")

	// ErrInvalidParameter indicates a required parameter is missing or
	// structurally invalid.
	ErrInvalidParameter = errors.New("BAD_REQUEST")

	// ErrUnknownStation indicates a station name has no preset.
	ErrUnknownStation = errors.New("STATION_NOT_FOUND")
)
