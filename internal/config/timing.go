package config

import (
	"fmt"
	"time"
)

// TimingConfig holds the heartbeat, buffering, and command timeout
// parameters of the container.
type TimingConfig struct {
	// Heartbeat configuration
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	HeartbeatJitter   time.Duration `mapstructure:"heartbeat_jitter"`

	// Command timeout classes
	CommandTimeoutStep     time.Duration `mapstructure:"command_timeout_step"`
	CommandTimeoutRecall   time.Duration `mapstructure:"command_timeout_recall"`
	CommandTimeoutSelect   time.Duration `mapstructure:"command_timeout_select"`
	CommandTimeoutGetState time.Duration `mapstructure:"command_timeout_get_state"`
	CommandTimeoutSeek     time.Duration `mapstructure:"command_timeout_seek"`

	// Seek budget: hard cap on steps a single seek may issue. The full
	// band is 214 steps wide, so the default leaves headroom.
	SeekMaxSteps int `mapstructure:"seek_max_steps"`

	// Event buffer configuration
	EventBufferSize      int           `mapstructure:"event_buffer_size"`
	EventBufferRetention time.Duration `mapstructure:"event_buffer_retention"`
}

// TimingBaseline returns the built-in timing defaults.
func TimingBaseline() TimingConfig {
	return TimingConfig{
		HeartbeatInterval: 15 * time.Second,
		HeartbeatJitter:   2 * time.Second,

		CommandTimeoutStep:     5 * time.Second,
		CommandTimeoutRecall:   5 * time.Second,
		CommandTimeoutSelect:   5 * time.Second,
		CommandTimeoutGetState: 5 * time.Second,
		CommandTimeoutSeek:     30 * time.Second,

		SeekMaxSteps: 250,

		EventBufferSize:      50,
		EventBufferRetention: 1 * time.Hour,
	}
}

// ValidateTiming checks a timing configuration for values the container
// cannot run with.
func ValidateTiming(tc *TimingConfig) error {
	if tc.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %v", tc.HeartbeatInterval)
	}
	if tc.HeartbeatJitter < 0 {
		return fmt.Errorf("heartbeat jitter must be non-negative, got %v", tc.HeartbeatJitter)
	}
	if tc.HeartbeatJitter >= tc.HeartbeatInterval {
		return fmt.Errorf("heartbeat jitter %v must be smaller than interval %v", tc.HeartbeatJitter, tc.HeartbeatInterval)
	}
	for name, d := range map[string]time.Duration{
		"step":      tc.CommandTimeoutStep,
		"recall":    tc.CommandTimeoutRecall,
		"select":    tc.CommandTimeoutSelect,
		"get_state": tc.CommandTimeoutGetState,
		"seek":      tc.CommandTimeoutSeek,
	} {
		if d <= 0 {
			return fmt.Errorf("command timeout %s must be positive, got %v", name, d)
		}
	}
	if tc.SeekMaxSteps <= 0 {
		return fmt.Errorf("seek max steps must be positive, got %d", tc.SeekMaxSteps)
	}
	if tc.EventBufferSize <= 0 {
		return fmt.Errorf("event buffer size must be positive, got %d", tc.EventBufferSize)
	}
	if tc.EventBufferRetention <= 0 {
		return fmt.Errorf("event buffer retention must be positive, got %v", tc.EventBufferRetention)
	}
	return nil
}
