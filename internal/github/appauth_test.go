package github

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testPrivateKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	return string(pem.EncodeToMemory(block))
}

func TestNewAppAuthValidation(t *testing.T) {
	if _, err := NewAppAuth("", "key"); err == nil {
		t.Error("expected error for missing app id")
	}
	if _, err := NewAppAuth("123", ""); err == nil {
		t.Error("expected error for missing private key")
	}
	if _, err := NewAppAuth("123", "not a pem"); err == nil {
		t.Error("expected error for malformed key")
	}
	if _, err := NewAppAuth("123", testPrivateKeyPEM(t)); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
}

func TestInstallationTokenCaching(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/app/installations/7/access_tokens") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Error("missing app JWT")
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":      fmt.Sprintf("ghs_token_%d", calls),
			"expires_at": time.Now().UTC().Add(time.Hour),
		})
	}))
	defer srv.Close()

	a, err := NewAppAuth("123", testPrivateKeyPEM(t))
	if err != nil {
		t.Fatalf("NewAppAuth: %v", err)
	}
	a.BaseURL = srv.URL
	a.HTTP = srv.Client()

	tok1, err := a.InstallationToken(context.Background(), 7)
	if err != nil {
		t.Fatalf("InstallationToken: %v", err)
	}
	tok2, err := a.InstallationToken(context.Background(), 7)
	if err != nil {
		t.Fatalf("InstallationToken: %v", err)
	}
	if tok1 != tok2 {
		t.Errorf("token not cached: %q vs %q", tok1, tok2)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestInstallationTokenRefreshNearExpiry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		// Expires within the one minute refresh window.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":      fmt.Sprintf("ghs_token_%d", calls),
			"expires_at": time.Now().UTC().Add(30 * time.Second),
		})
	}))
	defer srv.Close()

	a, err := NewAppAuth("123", testPrivateKeyPEM(t))
	if err != nil {
		t.Fatalf("NewAppAuth: %v", err)
	}
	a.BaseURL = srv.URL
	a.HTTP = srv.Client()

	if _, err := a.InstallationToken(context.Background(), 7); err != nil {
		t.Fatalf("InstallationToken: %v", err)
	}
	if _, err := a.InstallationToken(context.Background(), 7); err != nil {
		t.Fatalf("InstallationToken: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (no caching near expiry)", calls)
	}
}

func TestInstallationTokenRequiresID(t *testing.T) {
	a, err := NewAppAuth("123", testPrivateKeyPEM(t))
	if err != nil {
		t.Fatalf("NewAppAuth: %v", err)
	}
	if _, err := a.InstallationToken(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero installation id")
	}
}
