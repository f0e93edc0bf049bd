package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":8000" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":8000")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if len(cfg.Tuners.IDs) != 1 || cfg.Tuners.IDs[0] != "tuner-01" {
		t.Errorf("Tuners.IDs = %v, want [tuner-01]", cfg.Tuners.IDs)
	}
	if cfg.Timing.HeartbeatInterval != 15*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 15s", cfg.Timing.HeartbeatInterval)
	}
	if cfg.Timing.SeekMaxSteps != 250 {
		t.Errorf("SeekMaxSteps = %d, want 250", cfg.Timing.SeekMaxSteps)
	}
	if cfg.AuthEnabled() {
		t.Error("AuthEnabled() = true with no keys configured")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TCC_SERVER_ADDR", ":9000")
	t.Setenv("TCC_LOG_LEVEL", "debug")
	t.Setenv("TCC_AUTH_SECRET_KEY", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":9000")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if !cfg.AuthEnabled() {
		t.Error("AuthEnabled() = false with a secret key configured")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Addr: ":8000"},
			Auth:   AuthConfig{Algorithm: "HS256"},
			Audit:  AuditConfig{MaxSizeMB: 10},
			Tuners: TunersConfig{IDs: []string{"tuner-01"}},
			Timing: TimingBaseline(),
		}
	}

	if err := Validate(valid()); err != nil {
		t.Fatalf("Validate rejected a valid config: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"no tuners", func(c *Config) { c.Tuners.IDs = nil }},
		{"empty tuner id", func(c *Config) { c.Tuners.IDs = []string{""} }},
		{"duplicate tuner id", func(c *Config) { c.Tuners.IDs = []string{"a", "a"} }},
		{"bad algorithm", func(c *Config) { c.Auth.Algorithm = "none" }},
		{"zero audit size", func(c *Config) { c.Audit.MaxSizeMB = 0 }},
		{"zero heartbeat", func(c *Config) { c.Timing.HeartbeatInterval = 0 }},
		{"jitter exceeds interval", func(c *Config) { c.Timing.HeartbeatJitter = time.Minute }},
		{"zero seek budget", func(c *Config) { c.Timing.SeekMaxSteps = 0 }},
		{"zero buffer size", func(c *Config) { c.Timing.EventBufferSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}

func TestValidateTiming_NegativeTimeout(t *testing.T) {
	tc := TimingBaseline()
	tc.CommandTimeoutSeek = -time.Second
	if err := ValidateTiming(&tc); err == nil {
		t.Error("ValidateTiming accepted a negative seek timeout")
	}
}
