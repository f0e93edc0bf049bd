package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tuner-control/tcc/internal/auth"
	"github.com/tuner-control/tcc/internal/command"
)

// Version reported by health and capabilities endpoints.
const Version = "1.0.0"

// RegisterRoutes registers all v1 endpoints.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	apiV1 := "/api/v1"

	// Health endpoint (no auth required)
	mux.HandleFunc(apiV1+"/health", s.handleHealth)

	if s.authMiddleware == nil {
		mux.HandleFunc(apiV1+"/capabilities", s.handleCapabilities)
		mux.HandleFunc(apiV1+"/tuners", s.handleTuners)
		mux.HandleFunc(apiV1+"/tuners/select", s.handleSelectTuner)
		mux.HandleFunc(apiV1+"/tuners/", s.handleTunerEndpoints)
		mux.HandleFunc(apiV1+"/telemetry", s.handleTelemetry)
		return
	}

	requireRead := func(h http.HandlerFunc) http.HandlerFunc {
		return s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(auth.ScopeRead)(h))
	}
	requireControl := func(h http.HandlerFunc) http.HandlerFunc {
		return s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(auth.ScopeControl)(h))
	}

	mux.HandleFunc(apiV1+"/capabilities", requireRead(s.handleCapabilities))
	mux.HandleFunc(apiV1+"/tuners", requireRead(s.handleTuners))
	mux.HandleFunc(apiV1+"/tuners/select", requireControl(s.handleSelectTuner))
	mux.HandleFunc(apiV1+"/tuners/", s.handleTunerEndpoints)
	mux.HandleFunc(apiV1+"/telemetry", s.authMiddleware.RequireAuth(
		s.authMiddleware.RequireScope(auth.ScopeTelemetry)(s.handleTelemetry)))
}

// handleCapabilities handles GET /capabilities
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"telemetry": []string{"sse"},
		"commands":  []string{"http-json"},
		"stations":  s.stationNames,
		"version":   Version,
	})
}

// handleTuners handles GET /tuners
func (s *Server) handleTuners(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	if s.tunerManager == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"Tuner manager not available", nil)
		return
	}

	WriteSuccess(w, s.tunerManager.List())
}

// handleSelectTuner handles POST /tuners/select
func (s *Server) handleSelectTuner(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		TunerID string `json:"tunerId"`
	}
	if !decodeStrict(w, r, &req) {
		return
	}

	if s.orchestrator == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	if err := s.orchestrator.SelectTuner(r.Context(), req.TunerID); err != nil {
		WriteMappedError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"activeTunerId": req.TunerID})
}

// handleTunerEndpoints routes /tuners/{id}... paths to the right handler
// with the scope the endpoint requires.
func (s *Server) handleTunerEndpoints(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	tunerID := extractTunerID(path)
	if tunerID == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Tuner ID is required", nil)
		return
	}

	var handler http.HandlerFunc
	var scope string

	switch {
	case strings.HasSuffix(path, "/frequencies"):
		handler = s.withTunerID(tunerID, s.handleFrequencies)
		scope = auth.ScopeRead
	case strings.HasSuffix(path, "/step"):
		handler = s.withTunerID(tunerID, s.handleStep)
		scope = auth.ScopeControl
	case strings.HasSuffix(path, "/recall"):
		handler = s.withTunerID(tunerID, s.handleRecall)
		scope = auth.ScopeControl
	case strings.HasSuffix(path, "/station"):
		handler = s.withTunerID(tunerID, s.handleStation)
		scope = auth.ScopeControl
	default:
		handler = s.withTunerID(tunerID, s.handleTunerByID)
		scope = auth.ScopeRead
	}

	if s.authMiddleware != nil {
		handler = s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(scope)(handler))
	}

	handler(w, r)
}

func (s *Server) withTunerID(tunerID string, h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(w, r, tunerID)
	}
}

// handleTunerByID handles GET /tuners/{id}
func (s *Server) handleTunerByID(w http.ResponseWriter, r *http.Request, tunerID string) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	if s.tunerManager == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"Tuner manager not available", nil)
		return
	}

	entry, err := s.tunerManager.GetTuner(tunerID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Tuner not found", nil)
		return
	}

	WriteSuccess(w, entry)
}

// handleFrequencies handles GET /tuners/{id}/frequencies
func (s *Server) handleFrequencies(w http.ResponseWriter, r *http.Request, tunerID string) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	if s.orchestrator == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	state, err := s.orchestrator.GetState(r.Context(), tunerID)
	if err != nil {
		WriteMappedError(w, err)
		return
	}

	WriteSuccess(w, state)
}

// handleStep handles POST /tuners/{id}/step
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, tunerID string) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Direction string `json:"direction"`
	}
	if !decodeStrict(w, r, &req) {
		return
	}

	if s.orchestrator == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	state, err := s.orchestrator.Step(r.Context(), tunerID, command.Direction(req.Direction))
	if err != nil {
		WriteMappedError(w, err)
		return
	}

	// A band-guarded step returns 200 with the unchanged state; the
	// caller observes the rejection only through the values.
	WriteSuccess(w, state)
}

// handleRecall handles POST /tuners/{id}/recall
func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request, tunerID string) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if s.orchestrator == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	state, err := s.orchestrator.Recall(r.Context(), tunerID)
	if err != nil {
		WriteMappedError(w, err)
		return
	}

	WriteSuccess(w, state)
}

// handleStation handles POST /tuners/{id}/station
func (s *Server) handleStation(w http.ResponseWriter, r *http.Request, tunerID string) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if !decodeStrict(w, r, &req) {
		return
	}

	if s.orchestrator == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	state, err := s.orchestrator.TuneToStation(r.Context(), tunerID, req.Name)
	if err != nil {
		WriteMappedError(w, err)
		return
	}

	WriteSuccess(w, state)
}

// handleTelemetry handles GET /telemetry (SSE)
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	if s.telemetryHub == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"Telemetry service not available", nil)
		return
	}

	if err := s.telemetryHub.Subscribe(r.Context(), w, r); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL",
			"Failed to subscribe to telemetry stream", nil)
		return
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	uptime := 0.0
	if !s.startTime.IsZero() {
		uptime = time.Since(s.startTime).Seconds()
	}

	subsystems := map[string]bool{
		"telemetry":    s.telemetryHub != nil,
		"orchestrator": s.orchestrator != nil,
		"tunerManager": s.tunerManager != nil,
	}

	health := map[string]interface{}{
		"status":     "ok",
		"uptimeSec":  uptime,
		"version":    Version,
		"subsystems": subsystems,
	}

	for _, ok := range subsystems {
		if !ok {
			health["status"] = "degraded"
			WriteError(w, http.StatusServiceUnavailable, "SERVICE_DEGRADED",
				"One or more subsystems are unavailable", health)
			return
		}
	}

	WriteSuccess(w, health)
}

// requireMethod rejects any request whose method does not match.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only "+method+" method is allowed", nil)
		return false
	}
	return true
}

// decodeStrict decodes a JSON body rejecting unknown fields and trailing
// data, writing the error envelope on failure.
func decodeStrict(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Malformed JSON or unknown fields", nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Trailing data after JSON object", nil)
		return false
	}
	return true
}

// extractTunerID extracts the tuner ID from paths like
// /api/v1/tuners/{id}/step.
func extractTunerID(path string) string {
	const prefix = "/api/v1/tuners/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}

	parts := strings.Split(path[len(prefix):], "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}
