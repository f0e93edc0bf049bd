package tuner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tuner-control/tcc/internal/adapter"
)

// Entry represents a single tuner in the inventory with its band limits
// and last observed state.
type Entry struct {
	ID       string              `json:"id"`
	Model    string              `json:"model"`
	Status   string              `json:"status"`
	Band     *adapter.Band       `json:"band,omitempty"`
	State    *adapter.TunerState `json:"state,omitempty"`
	LastSeen time.Time           `json:"lastSeen,omitempty"`
}

// EntryList is the response shape for the tuner listing endpoint.
type EntryList struct {
	ActiveTunerID string  `json:"activeTunerId"`
	Items         []Entry `json:"items"`
}

// Manager maintains the tuner inventory, per-tuner adapters, and the
// active selection.
type Manager struct {
	mu            sync.RWMutex
	tuners        map[string]*Entry
	adapters      map[string]adapter.ITunerAdapter
	activeTunerID string
}

// NewManager creates an empty tuner manager.
func NewManager() *Manager {
	return &Manager{
		tuners:   make(map[string]*Entry),
		adapters: make(map[string]adapter.ITunerAdapter),
	}
}

// Register adds a tuner backed by the given adapter, querying its band
// limits and current state. The first registered tuner becomes active.
func (m *Manager) Register(tunerID string, ta adapter.ITunerAdapter, timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	band, err := ta.Band(ctx)
	if err != nil {
		return fmt.Errorf("failed to load band limits for tuner %s: %w", tunerID, err)
	}

	status := "online"
	state, err := ta.GetState(ctx)
	if err != nil {
		// Unreadable state registers as an offline, zeroed tuner.
		status = "offline"
		state = &adapter.TunerState{}
	}

	m.adapters[tunerID] = ta
	m.tuners[tunerID] = &Entry{
		ID:       tunerID,
		Model:    modelOf(ta),
		Status:   status,
		Band:     band,
		State:    state,
		LastSeen: time.Now(),
	}

	if m.activeTunerID == "" {
		m.activeTunerID = tunerID
	}

	return nil
}

// SetActive selects the active tuner, checking existence first.
func (m *Manager) SetActive(tunerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tuners[tunerID]; !exists {
		return fmt.Errorf("tuner %s not found", tunerID)
	}

	m.activeTunerID = tunerID
	return nil
}

// GetActive returns the active tuner ID, or empty if none is registered.
func (m *Manager) GetActive() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeTunerID
}

// GetActiveAdapter returns the adapter for the active tuner.
func (m *Manager) GetActiveAdapter() (adapter.ITunerAdapter, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.activeTunerID == "" {
		return nil, "", fmt.Errorf("no active tuner")
	}

	ta, exists := m.adapters[m.activeTunerID]
	if !exists {
		return nil, "", fmt.Errorf("no adapter for active tuner %s", m.activeTunerID)
	}

	return ta, m.activeTunerID, nil
}

// GetAdapter returns the adapter for a specific tuner.
func (m *Manager) GetAdapter(tunerID string) (adapter.ITunerAdapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ta, exists := m.adapters[tunerID]
	if !exists {
		return nil, fmt.Errorf("no adapter for tuner %s", tunerID)
	}
	return ta, nil
}

// GetTuner returns a copy of the inventory entry for a tuner.
func (m *Manager) GetTuner(tunerID string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, exists := m.tuners[tunerID]
	if !exists {
		return nil, fmt.Errorf("tuner %s not found", tunerID)
	}

	cp := *entry
	return &cp, nil
}

// List returns the inventory with the active selection.
func (m *Manager) List() *EntryList {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]Entry, 0, len(m.tuners))
	for _, entry := range m.tuners {
		items = append(items, *entry)
	}

	return &EntryList{
		ActiveTunerID: m.activeTunerID,
		Items:         items,
	}
}

// UpdateState records the latest observed state for a tuner and marks it
// online.
func (m *Manager) UpdateState(tunerID string, state *adapter.TunerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.tuners[tunerID]
	if !exists {
		return fmt.Errorf("tuner %s not found", tunerID)
	}

	entry.State = state
	entry.Status = "online"
	entry.LastSeen = time.Now()
	return nil
}

// UpdateStatus records a status transition for a tuner.
func (m *Manager) UpdateStatus(tunerID string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.tuners[tunerID]
	if !exists {
		return fmt.Errorf("tuner %s not found", tunerID)
	}

	entry.Status = status
	entry.LastSeen = time.Now()
	return nil
}

// Remove deletes a tuner from the inventory. Removing the active tuner
// clears the selection.
func (m *Manager) Remove(tunerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tuners[tunerID]; !exists {
		return fmt.Errorf("tuner %s not found", tunerID)
	}

	delete(m.tuners, tunerID)
	delete(m.adapters, tunerID)

	if m.activeTunerID == tunerID {
		m.activeTunerID = ""
	}

	return nil
}

func modelOf(ta adapter.ITunerAdapter) string {
	if named, ok := ta.(interface{ GetModel() string }); ok {
		return named.GetModel()
	}
	return "Unknown-Tuner"
}
