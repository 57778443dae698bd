package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/uncommithq/uncommit/backend/internal/auth"
	"github.com/uncommithq/uncommit/backend/internal/config"
	"github.com/uncommithq/uncommit/backend/internal/cryptox"
	"github.com/uncommithq/uncommit/backend/internal/github"
	"github.com/uncommithq/uncommit/backend/internal/store"
)

type GitHubOAuthHandler struct {
	cfg   config.Config
	store *store.Store
}

func NewGitHubOAuthHandler(cfg config.Config, st *store.Store) *GitHubOAuthHandler {
	return &GitHubOAuthHandler{cfg: cfg, store: st}
}

// Login scopes: identity only. Repository access comes from the GitHub App
// installation, not the user's OAuth token.
var loginScopes = []string{"read:user", "user:email"}

// LoginStart begins GitHub login/signup (no prior JWT required).
func (h *GitHubOAuthHandler) LoginStart() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if h.cfg.GitHubOAuthClientID == "" || h.cfg.GitHubOAuthRedirectURL == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "github_login_not_configured"})
		}

		state := randomState(32)
		if err := h.store.CreateOAuthState(c.Context(), state, uuid.Nil, "github_login", 10*time.Minute); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "state_create_failed"})
		}

		authURL, err := github.AuthorizeURL(h.cfg.GitHubOAuthClientID, h.cfg.GitHubOAuthRedirectURL, state, loginScopes)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "auth_url_failed"})
		}

		return c.Redirect(authURL, fiber.StatusFound)
	}
}

// Callback finishes GitHub login: consumes the state, exchanges the code,
// upserts the user with an encrypted copy of the access token, and issues a
// JWT.
func (h *GitHubOAuthHandler) Callback() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if h.cfg.GitHubOAuthClientID == "" || h.cfg.GitHubOAuthClientSecret == "" || h.cfg.GitHubOAuthRedirectURL == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "github_oauth_not_configured"})
		}
		if h.cfg.JWTSecret == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "jwt_not_configured"})
		}

		code := c.Query("code")
		state := c.Query("state")
		if code == "" || state == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_code_or_state"})
		}

		kind, _, ok, err := h.store.ConsumeOAuthState(c.Context(), state)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "state_lookup_failed"})
		}
		if !ok || kind != "github_login" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_or_expired_state"})
		}

		tr, err := github.ExchangeCode(c.Context(), code, github.OAuthConfig{
			ClientID:     h.cfg.GitHubOAuthClientID,
			ClientSecret: h.cfg.GitHubOAuthClientSecret,
			RedirectURL:  h.cfg.GitHubOAuthRedirectURL,
		})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "token_exchange_failed"})
		}

		encKey, err := cryptox.KeyFromB64(h.cfg.TokenEncKeyB64)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "token_encryption_not_configured"})
		}
		encToken, err := cryptox.EncryptAESGCM(encKey, []byte(tr.AccessToken))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "token_encrypt_failed"})
		}

		gh := github.NewClient()
		u, err := gh.GetUser(c.Context(), tr.AccessToken)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "github_user_fetch_failed"})
		}

		user, err := h.store.UpsertUserFromGitHub(c.Context(), store.GitHubIdentity{
			GitHubUserID: u.ID,
			Login:        u.Login,
			Name:         u.Name,
			Email:        u.Email,
			AvatarURL:    u.AvatarURL,
		}, encToken)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "user_upsert_failed"})
		}

		jwtToken, err := auth.IssueJWT(h.cfg.JWTSecret, user.ID, user.Role, u.Login, 24*time.Hour)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "token_issue_failed"})
		}

		if h.cfg.GitHubOAuthSuccessRedirectURL != "" {
			ru, err := url.Parse(h.cfg.GitHubOAuthSuccessRedirectURL)
			if err == nil {
				q := ru.Query()
				q.Set("token", jwtToken)
				ru.RawQuery = q.Encode()
				return c.Redirect(ru.String(), fiber.StatusFound)
			}
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"token": jwtToken,
			"user": fiber.Map{
				"id":    user.ID.String(),
				"login": u.Login,
				"role":  user.Role,
			},
		})
	}
}

// Me returns the authenticated account.
func (h *GitHubOAuthHandler) Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sub, _ := c.Locals(auth.LocalUserID).(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_user"})
		}

		login, linked, err := h.store.GitHubLoginForUser(c.Context(), userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup_failed"})
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"id":     userID.String(),
			"linked": linked,
			"login":  login,
		})
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
