package cryptox

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := KeyFromB64(base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32)))
	if err != nil {
		t.Fatalf("KeyFromB64: %v", err)
	}
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(t)
	blob, err := EncryptAESGCM(key, []byte("gho_secret_token"))
	if err != nil {
		t.Fatalf("EncryptAESGCM: %v", err)
	}
	out, err := DecryptAESGCM(key, blob)
	if err != nil {
		t.Fatalf("DecryptAESGCM: %v", err)
	}
	if string(out) != "gho_secret_token" {
		t.Fatalf("got %q", out)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	blob, err := EncryptAESGCM(testKey(t), []byte("data"))
	if err != nil {
		t.Fatalf("EncryptAESGCM: %v", err)
	}
	other, err := KeyFromB64(base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{9}, 32)))
	if err != nil {
		t.Fatalf("KeyFromB64: %v", err)
	}
	if _, err := DecryptAESGCM(other, blob); err == nil {
		t.Fatal("expected auth failure with wrong key")
	}
}

func TestKeyFromB64Validation(t *testing.T) {
	if _, err := KeyFromB64(""); err == nil {
		t.Error("empty key accepted")
	}
	if _, err := KeyFromB64("!!!not base64!!!"); err == nil {
		t.Error("bad base64 accepted")
	}
	if _, err := KeyFromB64(base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Error("short key accepted")
	}
}

func TestDecryptTruncatedBlob(t *testing.T) {
	if _, err := DecryptAESGCM(testKey(t), []byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated blob")
	}
}
