package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the complete container configuration.
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Audit    AuditConfig
	Tuners   TunersConfig
	Timing   TimingConfig
	LogLevel string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  string
	WriteTimeout string
	IdleTimeout  string
}

// AuthConfig holds bearer-token verification settings. Auth is disabled
// when neither a secret nor a public key is configured.
type AuthConfig struct {
	Algorithm    string // "HS256" or "RS256"
	SecretKey    string
	PublicKeyPEM string
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// TunersConfig holds tuner inventory settings.
type TunersConfig struct {
	// IDs of the in-process tuners to register at startup.
	IDs []string

	// StationsFile is the optional station preset file (YAML).
	StationsFile string
}

// Load resolves configuration from defaults, an optional config.yaml in
// the working directory, and TCC_* environment overrides.
func Load() (*Config, error) {
	v := viper.New()

	// Baseline defaults
	base := TimingBaseline()
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("log_level", "info")
	v.SetDefault("auth.algorithm", "HS256")
	v.SetDefault("auth.secret_key", "")
	v.SetDefault("auth.public_key_pem", "")
	v.SetDefault("audit.dir", "logs")
	v.SetDefault("audit.max_size_mb", 10)
	v.SetDefault("audit.max_backups", 5)
	v.SetDefault("audit.max_age_days", 30)
	v.SetDefault("tuners.ids", []string{"tuner-01"})
	v.SetDefault("tuners.stations_file", "")
	v.SetDefault("timing.heartbeat_interval", base.HeartbeatInterval)
	v.SetDefault("timing.heartbeat_jitter", base.HeartbeatJitter)
	v.SetDefault("timing.command_timeout_step", base.CommandTimeoutStep)
	v.SetDefault("timing.command_timeout_recall", base.CommandTimeoutRecall)
	v.SetDefault("timing.command_timeout_select", base.CommandTimeoutSelect)
	v.SetDefault("timing.command_timeout_get_state", base.CommandTimeoutGetState)
	v.SetDefault("timing.command_timeout_seek", base.CommandTimeoutSeek)
	v.SetDefault("timing.seek_max_steps", base.SeekMaxSteps)
	v.SetDefault("timing.event_buffer_size", base.EventBufferSize)
	v.SetDefault("timing.event_buffer_retention", base.EventBufferRetention)

	// Optional config.yaml in the working directory
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// TCC_* environment overrides, e.g. TCC_SERVER_ADDR, TCC_LOG_LEVEL
	v.SetEnvPrefix("TCC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Addr:         v.GetString("server.addr"),
			ReadTimeout:  v.GetString("server.read_timeout"),
			WriteTimeout: v.GetString("server.write_timeout"),
			IdleTimeout:  v.GetString("server.idle_timeout"),
		},
		Auth: AuthConfig{
			Algorithm:    v.GetString("auth.algorithm"),
			SecretKey:    v.GetString("auth.secret_key"),
			PublicKeyPEM: v.GetString("auth.public_key_pem"),
		},
		Audit: AuditConfig{
			Dir:        v.GetString("audit.dir"),
			MaxSizeMB:  v.GetInt("audit.max_size_mb"),
			MaxBackups: v.GetInt("audit.max_backups"),
			MaxAgeDays: v.GetInt("audit.max_age_days"),
		},
		Tuners: TunersConfig{
			IDs:          v.GetStringSlice("tuners.ids"),
			StationsFile: v.GetString("tuners.stations_file"),
		},
		Timing: TimingConfig{
			HeartbeatInterval:      v.GetDuration("timing.heartbeat_interval"),
			HeartbeatJitter:        v.GetDuration("timing.heartbeat_jitter"),
			CommandTimeoutStep:     v.GetDuration("timing.command_timeout_step"),
			CommandTimeoutRecall:   v.GetDuration("timing.command_timeout_recall"),
			CommandTimeoutSelect:   v.GetDuration("timing.command_timeout_select"),
			CommandTimeoutGetState: v.GetDuration("timing.command_timeout_get_state"),
			CommandTimeoutSeek:     v.GetDuration("timing.command_timeout_seek"),
			SeekMaxSteps:           v.GetInt("timing.seek_max_steps"),
			EventBufferSize:        v.GetInt("timing.event_buffer_size"),
			EventBufferRetention:   v.GetDuration("timing.event_buffer_retention"),
		},
		LogLevel: v.GetString("log_level"),
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the resolved configuration.
func Validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server address must not be empty")
	}
	if len(cfg.Tuners.IDs) == 0 {
		return fmt.Errorf("at least one tuner ID must be configured")
	}
	seen := make(map[string]bool, len(cfg.Tuners.IDs))
	for _, id := range cfg.Tuners.IDs {
		if id == "" {
			return fmt.Errorf("tuner IDs must not be empty")
		}
		if seen[id] {
			return fmt.Errorf("duplicate tuner ID %q", id)
		}
		seen[id] = true
	}
	switch cfg.Auth.Algorithm {
	case "HS256", "RS256":
	default:
		return fmt.Errorf("unsupported auth algorithm %q", cfg.Auth.Algorithm)
	}
	if cfg.Audit.MaxSizeMB <= 0 {
		return fmt.Errorf("audit max size must be positive, got %d", cfg.Audit.MaxSizeMB)
	}
	return ValidateTiming(&cfg.Timing)
}

// AuthEnabled reports whether bearer-token verification is configured.
func (c *Config) AuthEnabled() bool {
	return c.Auth.SecretKey != "" || c.Auth.PublicKeyPEM != ""
}
