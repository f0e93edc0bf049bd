package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(VerifierConfig{Algorithm: "HS256", SecretKey: testSecret})
	if err != nil {
		t.Fatalf("NewVerifier failed: %v", err)
	}
	return v
}

func TestNewVerifier_Config(t *testing.T) {
	if _, err := NewVerifier(VerifierConfig{Algorithm: "HS256"}); err == nil {
		t.Error("NewVerifier accepted HS256 without a secret")
	}
	if _, err := NewVerifier(VerifierConfig{Algorithm: "RS256"}); err == nil {
		t.Error("NewVerifier accepted RS256 without a public key")
	}
	if _, err := NewVerifier(VerifierConfig{Algorithm: "none"}); err == nil {
		t.Error("NewVerifier accepted an unsupported algorithm")
	}
	if _, err := NewVerifier(VerifierConfig{Algorithm: "RS256", PublicKeyPEM: "not a pem"}); err == nil {
		t.Error("NewVerifier accepted a malformed public key")
	}
}

func TestVerify_HS256Roundtrip(t *testing.T) {
	v := newTestVerifier(t)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":    "operator-7",
		"roles":  []string{RoleController},
		"scopes": []string{ScopeRead, ScopeControl},
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "operator-7" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "operator-7")
	}
	if len(claims.Scopes) != 2 || claims.Scopes[0] != ScopeRead {
		t.Errorf("Scopes = %v, want [read control]", claims.Scopes)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != RoleController {
		t.Errorf("Roles = %v, want [controller]", claims.Roles)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	v := newTestVerifier(t)
	token := signToken(t, "other-secret", jwt.MapClaims{
		"sub": "operator-7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := v.Verify(token); err == nil {
		t.Error("Verify accepted a token signed with the wrong secret")
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	v := newTestVerifier(t)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "operator-7",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	if _, err := v.Verify(token); err == nil {
		t.Error("Verify accepted an expired token")
	}
}

func TestVerify_AlgorithmConfusion(t *testing.T) {
	v := newTestVerifier(t)

	// An unsigned token must not pass an HS256 verifier.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "operator-7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}

	if _, err := v.Verify(unsigned); err == nil {
		t.Error("Verify accepted an unsigned token")
	}
}

func TestVerify_Garbage(t *testing.T) {
	v := newTestVerifier(t)
	for _, token := range []string{"", "garbage", strings.Repeat("a.", 3)} {
		if _, err := v.Verify(token); err == nil {
			t.Errorf("Verify accepted %q", token)
		}
	}
}
