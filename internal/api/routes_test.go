package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tuner-control/tcc/internal/adapter/fake"
	"github.com/tuner-control/tcc/internal/auth"
	"github.com/tuner-control/tcc/internal/command"
	"github.com/tuner-control/tcc/internal/config"
	"github.com/tuner-control/tcc/internal/telemetry"
	"github.com/tuner-control/tcc/internal/tuner"
)

const testSecret = "routes-test-secret"

type testHarness struct {
	mux     *http.ServeMux
	adapter *fake.FakeAdapter
	hub     *telemetry.Hub
}

func newHarness(t *testing.T, withAuth bool) *testHarness {
	t.Helper()

	fa := fake.NewFakeAdapter("tuner-01")
	manager := tuner.NewManager()
	if err := manager.Register("tuner-01", fa, time.Second); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	timing := config.TimingBaseline()
	timing.HeartbeatInterval = time.Hour
	hub := telemetry.NewHub(timing)
	t.Cleanup(hub.Stop)

	orchestrator := command.NewOrchestrator(manager, hub, timing)
	orchestrator.SetStationPlan(&config.StationPlan{Stations: []config.Station{
		{Name: "KPOP", AMFrequency: 151.0},
	}})

	var server *Server
	if withAuth {
		verifier, err := auth.NewVerifier(auth.VerifierConfig{Algorithm: "HS256", SecretKey: testSecret})
		if err != nil {
			t.Fatalf("NewVerifier failed: %v", err)
		}
		server = NewServerWithAuth(hub, orchestrator, manager, auth.NewMiddleware(verifier),
			30*time.Second, 30*time.Second, 120*time.Second)
	} else {
		server = NewServer(hub, orchestrator, manager, 30*time.Second, 30*time.Second, 120*time.Second)
	}
	server.SetStationNames([]string{"KPOP"})

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	return &testHarness{mux: mux, adapter: fa, hub: hub}
}

func (h *testHarness) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("malformed envelope %q: %v", rec.Body.String(), err)
	}
	if envelope["correlationId"] == "" {
		t.Error("envelope missing correlationId")
	}
	return envelope
}

func TestHealth(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	if data["status"] != "ok" {
		t.Errorf("health status = %v, want ok", data["status"])
	}
}

func TestHealth_Degraded(t *testing.T) {
	server := NewServer(nil, nil, nil, time.Second, time.Second, time.Second)
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestCapabilities(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(http.MethodGet, "/api/v1/capabilities", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "sse") || !strings.Contains(body, "KPOP") {
		t.Errorf("capabilities missing expected entries:\n%s", body)
	}
}

func TestListTuners(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(http.MethodGet, "/api/v1/tuners", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	if data["activeTunerId"] != "tuner-01" {
		t.Errorf("activeTunerId = %v, want tuner-01", data["activeTunerId"])
	}
}

func TestSelectTuner(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(http.MethodPost, "/api/v1/tuners/select", `{"tunerId":"tuner-01"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = h.do(http.MethodPost, "/api/v1/tuners/select", `{"tunerId":"nonexistent"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d for unknown tuner", rec.Code, http.StatusNotFound)
	}
}

func TestSelectTuner_StrictJSON(t *testing.T) {
	h := newHarness(t, false)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"tunerId":`},
		{"unknown field", `{"tunerId":"tuner-01","bogus":true}`},
		{"trailing data", `{"tunerId":"tuner-01"}{"again":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/api/v1/tuners/select", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestGetTunerByID(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(http.MethodGet, "/api/v1/tuners/tuner-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = h.do(http.MethodGet, "/api/v1/tuners/nonexistent", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestFrequencies(t *testing.T) {
	h := newHarness(t, false)
	h.do(http.MethodPost, "/api/v1/tuners/tuner-01/recall", "")

	rec := h.do(http.MethodGet, "/api/v1/tuners/tuner-01/frequencies", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	if data["amFrequency"].(float64) != 150.0 || data["fmFrequency"].(float64) != 91.0 {
		t.Errorf("frequencies = %v, want 150.0/91.0", data)
	}
}

func TestRecall(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(http.MethodPost, "/api/v1/tuners/tuner-01/recall", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	if data["amFrequency"].(float64) != 150.0 || data["initialized"] != true {
		t.Errorf("recall state = %v, want initialized 150.0", data)
	}
}

func TestStep(t *testing.T) {
	h := newHarness(t, false)
	h.do(http.MethodPost, "/api/v1/tuners/tuner-01/recall", "")

	rec := h.do(http.MethodPost, "/api/v1/tuners/tuner-01/step", `{"direction":"up"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	if data["amFrequency"].(float64) != 150.5 {
		t.Errorf("amFrequency = %v, want 150.5", data["amFrequency"])
	}

	rec = h.do(http.MethodPost, "/api/v1/tuners/tuner-01/step", `{"direction":"sideways"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d for bad direction", rec.Code, http.StatusBadRequest)
	}
}

// A step absorbed at the band edge still answers 200 with the unchanged
// state.
func TestStep_AbsorbedAtCeiling(t *testing.T) {
	h := newHarness(t, false)
	h.do(http.MethodPost, "/api/v1/tuners/tuner-01/recall", "")
	for i := 0; i < 20; i++ {
		h.do(http.MethodPost, "/api/v1/tuners/tuner-01/step", `{"direction":"up"}`)
	}

	rec := h.do(http.MethodPost, "/api/v1/tuners/tuner-01/step", `{"direction":"up"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	if data["amFrequency"].(float64) != 160.0 {
		t.Errorf("amFrequency = %v, want 160.0", data["amFrequency"])
	}
}

func TestStation(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(http.MethodPost, "/api/v1/tuners/tuner-01/station", `{"name":"KPOP"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	if data["amFrequency"].(float64) != 151.0 {
		t.Errorf("amFrequency = %v, want 151.0", data["amFrequency"])
	}

	rec = h.do(http.MethodPost, "/api/v1/tuners/tuner-01/station", `{"name":"KJAZZ"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d for unknown station", rec.Code, http.StatusNotFound)
	}
}

func TestBackendFailureMapped(t *testing.T) {
	h := newHarness(t, false)
	h.adapter.SimulateError("busy")

	rec := h.do(http.MethodGet, "/api/v1/tuners/tuner-01/frequencies", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	envelope := decodeEnvelope(t, rec)
	if envelope["code"] != "BUSY" {
		t.Errorf("code = %v, want BUSY", envelope["code"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(http.MethodDelete, "/api/v1/tuners", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}

	rec = h.do(http.MethodGet, "/api/v1/tuners/tuner-01/step", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func issueToken(t *testing.T, scopes []string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "operator-7",
		"scopes": scopes,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestAuth_RequiredWhenConfigured(t *testing.T) {
	h := newHarness(t, true)

	rec := h.do(http.MethodGet, "/api/v1/tuners", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d without token", rec.Code, http.StatusUnauthorized)
	}

	// Health stays open.
	rec = h.do(http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestAuth_ScopeEnforcement(t *testing.T) {
	h := newHarness(t, true)
	readToken := issueToken(t, []string{auth.ScopeRead})
	controlToken := issueToken(t, []string{auth.ScopeControl})

	rec := h.do(http.MethodGet, "/api/v1/tuners", "", "Authorization", "Bearer "+readToken)
	if rec.Code != http.StatusOK {
		t.Errorf("read with read scope = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = h.do(http.MethodPost, "/api/v1/tuners/tuner-01/recall", "",
		"Authorization", "Bearer "+readToken)
	if rec.Code != http.StatusForbidden {
		t.Errorf("control with read scope = %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec = h.do(http.MethodPost, "/api/v1/tuners/tuner-01/recall", "",
		"Authorization", "Bearer "+controlToken)
	if rec.Code != http.StatusOK {
		t.Errorf("control with control scope = %d, want %d", rec.Code, http.StatusOK)
	}
}
