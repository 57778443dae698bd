package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueAndParseJWT(t *testing.T) {
	userID := uuid.New()
	tok, err := IssueJWT("secret", userID, "user", "octocat", time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}

	claims, err := ParseJWT("secret", tok)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.Subject != userID.String() {
		t.Errorf("subject = %q", claims.Subject)
	}
	if claims.Role != "user" || claims.Login != "octocat" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	tok, err := IssueJWT("secret", uuid.New(), "user", "", time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}
	if _, err := ParseJWT("other", tok); err == nil {
		t.Fatal("expected error with wrong secret")
	}
}

func TestParseJWTExpired(t *testing.T) {
	tok, err := IssueJWT("secret", uuid.New(), "user", "", time.Millisecond)
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := ParseJWT("secret", tok); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestIssueJWTRequiresSecret(t *testing.T) {
	if _, err := IssueJWT("", uuid.New(), "user", "", time.Hour); err == nil {
		t.Fatal("expected error without secret")
	}
}
