package auth

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func authTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/secure", RequireAuth("secret"), func(c *fiber.Ctx) error {
		sub, _ := c.Locals(LocalUserID).(string)
		return c.SendString(sub)
	})
	return app
}

func TestRequireAuth(t *testing.T) {
	app := authTestApp()
	userID := uuid.New()
	tok, err := IssueJWT("secret", userID, "user", "octocat", time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}

	req := httptest.NewRequest("GET", "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != userID.String() {
		t.Fatalf("locals user id = %q, want %q", body, userID)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	app := authTestApp()

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != fiber.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}
		})
	}

	// Token signed with a different secret.
	tok, err := IssueJWT("other", uuid.New(), "user", "", time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}
	req := httptest.NewRequest("GET", "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}
