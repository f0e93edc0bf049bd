// Package main implements the Tuner Control Container entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tuner-control/tcc/internal/adapter/memtuner"
	"github.com/tuner-control/tcc/internal/api"
	"github.com/tuner-control/tcc/internal/audit"
	"github.com/tuner-control/tcc/internal/auth"
	"github.com/tuner-control/tcc/internal/command"
	"github.com/tuner-control/tcc/internal/config"
	"github.com/tuner-control/tcc/internal/telemetry"
	"github.com/tuner-control/tcc/internal/tuner"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	applyLogLevel(cfg.LogLevel)
	log.Info().Str("version", api.Version).Msg("starting tuner control container")

	hub := telemetry.NewHub(cfg.Timing)

	auditLogger, err := audit.NewLogger(cfg.Audit.Dir, audit.Options{
		MaxSizeMB:  cfg.Audit.MaxSizeMB,
		MaxBackups: cfg.Audit.MaxBackups,
		MaxAgeDays: cfg.Audit.MaxAgeDays,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize audit logger")
	}
	log.Info().Str("file", auditLogger.FilePath()).Msg("audit logger initialized")

	tunerManager := tuner.NewManager()
	for _, id := range cfg.Tuners.IDs {
		if err := tunerManager.Register(id, memtuner.New(id), cfg.Timing.CommandTimeoutGetState); err != nil {
			log.Fatal().Err(err).Str("tunerId", id).Msg("failed to register tuner")
		}
		log.Info().Str("tunerId", id).Msg("tuner registered")
	}

	orchestrator := command.NewOrchestrator(tunerManager, hub, cfg.Timing)
	orchestrator.SetAuditLogger(auditLogger)

	var stationNames []string
	if cfg.Tuners.StationsFile != "" {
		plan, err := config.LoadStationPlan(cfg.Tuners.StationsFile, tuner.AMMin, tuner.AMMax)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Tuners.StationsFile).Msg("failed to load station plan")
		}
		orchestrator.SetStationPlan(plan)
		stationNames = plan.Names()
		log.Info().Int("stations", len(stationNames)).Msg("station plan loaded")
	}

	readTimeout := parseDurationOr(cfg.Server.ReadTimeout, 30*time.Second)
	writeTimeout := parseDurationOr(cfg.Server.WriteTimeout, 30*time.Second)
	idleTimeout := parseDurationOr(cfg.Server.IdleTimeout, 120*time.Second)

	var server *api.Server
	if cfg.AuthEnabled() {
		verifier, err := auth.NewVerifier(auth.VerifierConfig{
			Algorithm:    cfg.Auth.Algorithm,
			SecretKey:    cfg.Auth.SecretKey,
			PublicKeyPEM: cfg.Auth.PublicKeyPEM,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize token verifier")
		}
		server = api.NewServerWithAuth(hub, orchestrator, tunerManager,
			auth.NewMiddleware(verifier), readTimeout, writeTimeout, idleTimeout)
		log.Info().Str("algorithm", cfg.Auth.Algorithm).Msg("authentication enabled")
	} else {
		server = api.NewServer(hub, orchestrator, tunerManager, readTimeout, writeTimeout, idleTimeout)
		log.Warn().Msg("authentication disabled")
	}
	server.SetStationNames(stationNames)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.Server.Addr); err != nil {
			serverErr <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Stop()
	log.Info().Msg("telemetry hub stopped")

	if err := auditLogger.Close(); err != nil {
		log.Error().Err(err).Msg("error closing audit logger")
	}

	if err := server.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("error stopping http server")
	} else {
		log.Info().Msg("http server stopped")
	}

	log.Info().Msg("shutdown complete")
}

// applyLogLevel sets the global zerolog level, defaulting to info.
func applyLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// parseDurationOr parses a duration string, falling back on the default
// when empty or malformed.
func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
