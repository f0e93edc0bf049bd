package tuner

import "sync"

// Band limits and step sizes for the AM/FM pair. The FM reading tracks the
// AM reading 5:1: every 0.5 of AM movement carries 0.1 of FM movement.
const (
	AMMin     = 53.0
	AMMax     = 160.0
	AMStep    = 0.5
	FMStep    = 0.1
	DefaultAM = 150.0
	DefaultFM = 91.0
)

// Frequencies is a read-only snapshot of a tuner's current readings.
type Frequencies struct {
	AMFrequency float64 `json:"amFrequency"`
	FMFrequency float64 `json:"fmFrequency"`
}

// Tuner is a controlled value holder: both readings are readable at any
// time but can only be moved by the tuner itself through RecallDefaults,
// StepUp, and StepDown. A freshly constructed tuner reads zero on both
// bands until defaults are recalled.
type Tuner struct {
	mu          sync.RWMutex
	am          float64
	fm          float64
	initialized bool
}

// New returns an uninitialized tuner. Both readings are zero until
// RecallDefaults is called.
func New() *Tuner {
	return &Tuner{}
}

// AMFrequency returns the current AM reading.
func (t *Tuner) AMFrequency() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.am
}

// FMFrequency returns the current FM reading.
func (t *Tuner) FMFrequency() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fm
}

// Initialized reports whether defaults have ever been recalled.
func (t *Tuner) Initialized() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.initialized
}

// Snapshot returns both readings atomically.
func (t *Tuner) Snapshot() Frequencies {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Frequencies{AMFrequency: t.am, FMFrequency: t.fm}
}

// RecallDefaults unconditionally sets the readings to the factory pair
// (150.0 AM, 91.0 FM). It always succeeds.
func (t *Tuner) RecallDefaults() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.am = DefaultAM
	t.fm = DefaultFM
	t.initialized = true
}

// StepUp moves both readings up one step. The prospective AM value is
// checked against the band ceiling before committing; a step that would
// exceed it leaves both readings untouched. The rejection is silent:
// callers observe it only as an unchanged snapshot.
//
// Only the ceiling is guarded here. An uninitialized tuner (readings at
// zero) can therefore step up even though zero is below the band floor.
func (t *Tuner) StepUp() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.am+AMStep > AMMax {
		return false
	}
	t.am += AMStep
	t.fm += FMStep
	return true
}

// StepDown moves both readings down one step, guarding the band floor the
// same way StepUp guards the ceiling. From zero the prospective value is
// below the floor, so an uninitialized tuner cannot step down.
func (t *Tuner) StepDown() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.am-AMStep < AMMin {
		return false
	}
	t.am -= AMStep
	t.fm -= FMStep
	return true
}
