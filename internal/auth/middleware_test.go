package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func issueToken(t *testing.T, scopes []string) string {
	t.Helper()
	return signToken(t, testSecret, jwt.MapClaims{
		"sub":    "operator-7",
		"scopes": scopes,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
}

func newTestMiddleware(t *testing.T) *Middleware {
	t.Helper()
	return NewMiddleware(newTestVerifier(t))
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequireAuth_NoToken(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.RequireAuth(okHandler)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tuners", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.RequireAuth(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tuners", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	m := newTestMiddleware(t)

	var seen *Claims
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tuners", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, []string{ScopeRead}))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if seen == nil || seen.Subject != "operator-7" {
		t.Errorf("claims in context = %+v, want subject operator-7", seen)
	}
}

func TestRequireAuth_HealthExempt(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.RequireAuth(okHandler)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d for unauthenticated health", rec.Code, http.StatusOK)
	}
}

func TestRequireScope(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.RequireAuth(m.RequireScope(ScopeControl)(okHandler))

	// Token with only the read scope is rejected.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tuners/tuner-01/step", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, []string{ScopeRead}))
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d for missing scope", rec.Code, http.StatusForbidden)
	}

	// Token with the control scope passes.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/tuners/tuner-01/step", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, []string{ScopeControl}))
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d with control scope", rec.Code, http.StatusOK)
	}
}

func TestRequireScope_WithoutAuth(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.RequireScope(ScopeRead)(okHandler)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tuners", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d without claims", rec.Code, http.StatusUnauthorized)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc123", "abc123", true},
		{"Bearer ", "", false},
		{"Basic abc123", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		got, ok := bearerToken(req)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v, want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
