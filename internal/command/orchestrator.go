package command

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tuner-control/tcc/internal/adapter"
	"github.com/tuner-control/tcc/internal/config"
	"github.com/tuner-control/tcc/internal/telemetry"
	"github.com/tuner-control/tcc/internal/tuner"
)

// Orchestrator routes validated API intents to tuner adapters.
type Orchestrator struct {
	tunerManager TunerManager
	telemetryHub *telemetry.Hub
	timing       config.TimingConfig
	stations     *config.StationPlan
	auditLogger  AuditLogger
}

// Compile-time assertions for port conformance
var _ TunerManager = (*tuner.Manager)(nil)
var _ OrchestratorPort = (*Orchestrator)(nil)

// NewOrchestrator creates a command orchestrator.
func NewOrchestrator(tunerManager TunerManager, telemetryHub *telemetry.Hub, timing config.TimingConfig) *Orchestrator {
	return &Orchestrator{
		tunerManager: tunerManager,
		telemetryHub: telemetryHub,
		timing:       timing,
	}
}

// SetAuditLogger sets the audit sink.
func (o *Orchestrator) SetAuditLogger(logger AuditLogger) {
	o.auditLogger = logger
}

// SetStationPlan sets the station presets used by TuneToStation.
func (o *Orchestrator) SetStationPlan(plan *config.StationPlan) {
	o.stations = plan
}

// SelectTuner selects the active tuner for subsequent operations and
// confirms the adapter is responsive.
func (o *Orchestrator) SelectTuner(ctx context.Context, tunerID string) error {
	start := time.Now()

	if tunerID == "" {
		o.logAudit(ctx, "selectTuner", tunerID, "BAD_REQUEST", time.Since(start))
		return ErrInvalidParameter
	}

	ta, err := o.resolve(ctx, "selectTuner", tunerID, start)
	if err != nil {
		return err
	}

	if err := o.tunerManager.SetActive(tunerID); err != nil {
		o.logAudit(ctx, "selectTuner", tunerID, "NOT_FOUND", time.Since(start))
		return ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, o.timing.CommandTimeoutSelect)
	defer cancel()

	state, err := ta.GetState(ctx)
	latency := time.Since(start)
	if err != nil {
		normalized := adapter.NormalizeDriverError(err, nil)
		o.logAudit(ctx, "selectTuner", tunerID, "ERROR", latency)
		o.publishFault(tunerID, normalized, "Failed to select tuner")
		return normalized
	}

	_ = o.tunerManager.UpdateState(tunerID, state)
	o.logAudit(ctx, "selectTuner", tunerID, "SUCCESS", latency)
	return nil
}

// GetState retrieves the current state of a tuner.
func (o *Orchestrator) GetState(ctx context.Context, tunerID string) (*adapter.TunerState, error) {
	start := time.Now()

	ta, err := o.resolve(ctx, "getState", tunerID, start)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timing.CommandTimeoutGetState)
	defer cancel()

	state, err := ta.GetState(ctx)
	latency := time.Since(start)
	if err != nil {
		normalized := adapter.NormalizeDriverError(err, nil)
		o.logAudit(ctx, "getState", tunerID, "ERROR", latency)
		o.publishFault(tunerID, normalized, "Failed to get state")
		return nil, normalized
	}

	o.logAudit(ctx, "getState", tunerID, "SUCCESS", latency)
	return state, nil
}

// Recall sets a tuner to its factory frequency pair.
func (o *Orchestrator) Recall(ctx context.Context, tunerID string) (*adapter.TunerState, error) {
	start := time.Now()

	ta, err := o.resolve(ctx, "recall", tunerID, start)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timing.CommandTimeoutRecall)
	defer cancel()

	state, err := ta.RecallDefaults(ctx)
	latency := time.Since(start)
	if err != nil {
		normalized := adapter.NormalizeDriverError(err, nil)
		o.logAudit(ctx, "recall", tunerID, "ERROR", latency)
		o.publishFault(tunerID, normalized, "Failed to recall defaults")
		return nil, normalized
	}

	_ = o.tunerManager.UpdateState(tunerID, state)
	o.logAudit(ctx, "recall", tunerID, "SUCCESS", latency)
	o.publishEvent(tunerID, telemetry.EventRecalled, state)
	return state, nil
}

// Step moves a tuner one coupled step in the given direction. A step
// absorbed by the band guard still succeeds; it returns the unchanged
// state and emits no event.
func (o *Orchestrator) Step(ctx context.Context, tunerID string, direction Direction) (*adapter.TunerState, error) {
	start := time.Now()

	if direction != DirectionUp && direction != DirectionDown {
		o.logAudit(ctx, "step", tunerID, "BAD_REQUEST", time.Since(start))
		return nil, ErrInvalidParameter
	}

	ta, err := o.resolve(ctx, "step", tunerID, start)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timing.CommandTimeoutStep)
	defer cancel()

	before, err := ta.GetState(ctx)
	if err != nil {
		normalized := adapter.NormalizeDriverError(err, nil)
		o.logAudit(ctx, "step", tunerID, "ERROR", time.Since(start))
		o.publishFault(tunerID, normalized, "Failed to read state before step")
		return nil, normalized
	}

	var state *adapter.TunerState
	if direction == DirectionUp {
		state, err = ta.StepUp(ctx)
	} else {
		state, err = ta.StepDown(ctx)
	}
	latency := time.Since(start)
	if err != nil {
		normalized := adapter.NormalizeDriverError(err, nil)
		o.logAudit(ctx, "step", tunerID, "ERROR", latency)
		o.publishFault(tunerID, normalized, "Failed to step")
		return nil, normalized
	}

	_ = o.tunerManager.UpdateState(tunerID, state)
	o.logAudit(ctx, "step", tunerID, "SUCCESS", latency)

	if changed(before, state) {
		o.publishEvent(tunerID, telemetry.EventFrequencyChanged, state)
	}

	return state, nil
}

// TuneToStation drives a tuner to a named preset frequency using only the
// fixed step operations. An uninitialized tuner is recalled to defaults
// first so the seek starts from a known position.
func (o *Orchestrator) TuneToStation(ctx context.Context, tunerID string, station string) (*adapter.TunerState, error) {
	start := time.Now()

	if station == "" {
		o.logAudit(ctx, "tuneToStation", tunerID, "BAD_REQUEST", time.Since(start))
		return nil, ErrInvalidParameter
	}

	target, err := o.stations.Lookup(station)
	if err != nil {
		o.logAudit(ctx, "tuneToStation", tunerID, "NOT_FOUND", time.Since(start))
		return nil, ErrUnknownStation
	}

	ta, err := o.resolve(ctx, "tuneToStation", tunerID, start)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timing.CommandTimeoutSeek)
	defer cancel()

	state, err := ta.GetState(ctx)
	if err != nil {
		normalized := adapter.NormalizeDriverError(err, nil)
		o.logAudit(ctx, "tuneToStation", tunerID, "ERROR", time.Since(start))
		o.publishFault(tunerID, normalized, "Failed to read state before seek")
		return nil, normalized
	}

	if !state.Initialized {
		if state, err = ta.RecallDefaults(ctx); err != nil {
			normalized := adapter.NormalizeDriverError(err, nil)
			o.logAudit(ctx, "tuneToStation", tunerID, "ERROR", time.Since(start))
			o.publishFault(tunerID, normalized, "Failed to recall before seek")
			return nil, normalized
		}
		o.publishEvent(tunerID, telemetry.EventRecalled, state)
	}

	band, err := ta.Band(ctx)
	if err != nil {
		normalized := adapter.NormalizeDriverError(err, nil)
		o.logAudit(ctx, "tuneToStation", tunerID, "ERROR", time.Since(start))
		o.publishFault(tunerID, normalized, "Failed to read band before seek")
		return nil, normalized
	}

	// Step toward the target until it is less than half a step away or
	// the band guard stops making progress. The budget bounds the loop
	// even if the adapter misbehaves.
	halfStep := band.AMStep / 2
	for i := 0; i < o.timing.SeekMaxSteps; i++ {
		diff := target - state.AMFrequency
		if math.Abs(diff) < halfStep {
			break
		}

		var next *adapter.TunerState
		if diff > 0 {
			next, err = ta.StepUp(ctx)
		} else {
			next, err = ta.StepDown(ctx)
		}
		if err != nil {
			normalized := adapter.NormalizeDriverError(err, nil)
			o.logAudit(ctx, "tuneToStation", tunerID, "ERROR", time.Since(start))
			o.publishFault(tunerID, normalized, "Failed while seeking")
			return nil, normalized
		}
		if !changed(state, next) {
			// Band guard absorbed the step; the target is unreachable
			// from here and this is as close as the tuner gets.
			state = next
			break
		}
		state = next
	}

	latency := time.Since(start)
	_ = o.tunerManager.UpdateState(tunerID, state)
	o.logAudit(ctx, "tuneToStation", tunerID, "SUCCESS", latency)
	o.publishEvent(tunerID, telemetry.EventStationTuned, state, map[string]interface{}{
		"station": station,
	})

	log.Debug().
		Str("tuner", tunerID).
		Str("station", station).
		Float64("amFrequency", state.AMFrequency).
		Dur("latency", latency).
		Msg("station seek finished")

	return state, nil
}

// resolve checks the tuner exists and returns its adapter, auditing the
// failure paths.
func (o *Orchestrator) resolve(ctx context.Context, action, tunerID string, start time.Time) (adapter.ITunerAdapter, error) {
	if o.tunerManager == nil {
		o.logAudit(ctx, action, tunerID, "UNAVAILABLE", time.Since(start))
		return nil, adapter.ErrUnavailable
	}
	if _, err := o.tunerManager.GetTuner(tunerID); err != nil {
		o.logAudit(ctx, action, tunerID, "NOT_FOUND", time.Since(start))
		return nil, ErrNotFound
	}
	ta, err := o.tunerManager.GetAdapter(tunerID)
	if err != nil {
		o.logAudit(ctx, action, tunerID, "UNAVAILABLE", time.Since(start))
		return nil, adapter.ErrUnavailable
	}
	return ta, nil
}

func changed(before, after *adapter.TunerState) bool {
	if before == nil || after == nil {
		return true
	}
	return before.AMFrequency != after.AMFrequency ||
		before.FMFrequency != after.FMFrequency ||
		before.Initialized != after.Initialized
}

func (o *Orchestrator) publishEvent(tunerID, eventType string, state *adapter.TunerState, extra ...map[string]interface{}) {
	if o.telemetryHub == nil {
		return
	}

	data := map[string]interface{}{
		"tunerId":     tunerID,
		"amFrequency": state.AMFrequency,
		"fmFrequency": state.FMFrequency,
		"ts":          time.Now().UTC().Format(time.RFC3339),
	}
	for _, m := range extra {
		for k, v := range m {
			data[k] = v
		}
	}

	if err := o.telemetryHub.PublishTuner(tunerID, telemetry.Event{Type: eventType, Data: data}); err != nil {
		o.publishFault(tunerID, err, "Failed to publish "+eventType+" event")
	}
}

func (o *Orchestrator) publishFault(tunerID string, err error, message string) {
	if o.telemetryHub == nil {
		return
	}

	// A failed fault publish is not re-published to avoid recursion.
	_ = o.telemetryHub.PublishTuner(tunerID, telemetry.Event{
		Type: telemetry.EventFault,
		Data: map[string]interface{}{
			"tunerId": tunerID,
			"code":    err.Error(),
			"message": message,
			"ts":      time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (o *Orchestrator) logAudit(ctx context.Context, action, tunerID, outcome string, latency time.Duration) {
	if o.auditLogger != nil {
		o.auditLogger.LogAction(ctx, action, tunerID, outcome, latency)
	}
}
