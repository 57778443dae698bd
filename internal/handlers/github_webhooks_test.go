package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/uncommithq/uncommit/backend/internal/config"
)

const testWebhookSecret = "wh-secret"

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func webhookApp() *fiber.App {
	cfg := config.Config{GitHubWebhookSecret: testWebhookSecret}
	h := NewGitHubWebhooksHandler(cfg, nil, nil, nil)
	app := fiber.New()
	app.Post("/webhooks/github", h.Receive())
	return app
}

func postWebhook(t *testing.T, app *fiber.App, event, signature string, body []byte) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhooks/github", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", event)
	req.Header.Set("X-GitHub-Delivery", "d-1")
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(out)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	app := webhookApp()
	status, _ := postWebhook(t, app, "push", "", []byte(`{}`))
	if status != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	app := webhookApp()
	body := []byte(`{"ref":"refs/heads/main"}`)
	sig := signBody(testWebhookSecret, body)

	tampered := []byte(`{"ref":"refs/heads/evil"}`)
	status, _ := postWebhook(t, app, "push", sig, tampered)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}

func TestWebhookRejectsWrongSecret(t *testing.T) {
	app := webhookApp()
	body := []byte(`{"ref":"refs/heads/main"}`)
	status, _ := postWebhook(t, app, "push", signBody("other-secret", body), body)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}

func TestWebhookIgnoresNonPushEvents(t *testing.T) {
	app := webhookApp()
	body := []byte(`{"action":"created"}`)
	status, out := postWebhook(t, app, "installation", signBody(testWebhookSecret, body), body)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", status, out)
	}
}

func TestWebhookIgnoresNonDefaultBranch(t *testing.T) {
	app := webhookApp()
	body := []byte(`{
		"ref": "refs/heads/feature",
		"before": "a", "after": "b",
		"repository": {"id": 1, "name": "demo", "default_branch": "main", "owner": {"login": "acme"}}
	}`)
	status, _ := postWebhook(t, app, "push", signBody(testWebhookSecret, body), body)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
}

func TestWebhookIgnoresBranchDeletion(t *testing.T) {
	app := webhookApp()
	body := []byte(`{
		"ref": "refs/heads/main",
		"before": "a", "after": "0000000000000000000000000000000000000000",
		"repository": {"id": 1, "name": "demo", "default_branch": "main", "owner": {"login": "acme"}}
	}`)
	status, _ := postWebhook(t, app, "push", signBody(testWebhookSecret, body), body)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
}

func TestWebhookNoSecretConfigured(t *testing.T) {
	h := NewGitHubWebhooksHandler(config.Config{}, nil, nil, nil)
	app := fiber.New()
	app.Post("/webhooks/github", h.Receive())

	status, _ := postWebhook(t, app, "push", "sha256=deadbeef", []byte(`{}`))
	if status != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", status)
	}
}

func TestVerifyGitHubSignature(t *testing.T) {
	body := []byte(`{"x":1}`)
	good := signBody("s3cret", body)

	if !verifyGitHubSignature("s3cret", body, good) {
		t.Error("valid signature rejected")
	}
	if verifyGitHubSignature("s3cret", body, "") {
		t.Error("empty header accepted")
	}
	if verifyGitHubSignature("s3cret", body, "sha1=abc") {
		t.Error("non-sha256 header accepted")
	}
	if verifyGitHubSignature("wrong", body, good) {
		t.Error("wrong secret accepted")
	}
}
