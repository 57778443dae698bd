package handlers

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/uncommithq/uncommit/backend/internal/config"
)

func kofiApp(verificationToken string) *fiber.App {
	h := NewKofiWebhookHandler(config.Config{KofiVerificationToken: verificationToken}, nil)
	app := fiber.New()
	app.Post("/webhooks/kofi", h.Receive())
	return app
}

func postKofi(t *testing.T, app *fiber.App, data string) int {
	t.Helper()
	form := url.Values{}
	if data != "" {
		form.Set("data", data)
	}
	req := httptest.NewRequest("POST", "/webhooks/kofi", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestKofiNotConfigured(t *testing.T) {
	app := kofiApp("")
	if status := postKofi(t, app, `{"verification_token":"x"}`); status != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", status)
	}
}

func TestKofiMissingData(t *testing.T) {
	app := kofiApp("tok")
	if status := postKofi(t, app, ""); status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestKofiInvalidJSON(t *testing.T) {
	app := kofiApp("tok")
	if status := postKofi(t, app, "not json"); status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestKofiWrongVerificationToken(t *testing.T) {
	app := kofiApp("tok")
	if status := postKofi(t, app, `{"verification_token":"wrong","kofi_transaction_id":"t1"}`); status != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}

func TestKofiMissingTransactionID(t *testing.T) {
	app := kofiApp("tok")
	if status := postKofi(t, app, `{"verification_token":"tok"}`); status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}
