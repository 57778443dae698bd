package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/uncommithq/uncommit/backend/internal/auth"
	"github.com/uncommithq/uncommit/backend/internal/billing"
	"github.com/uncommithq/uncommit/backend/internal/config"
	"github.com/uncommithq/uncommit/backend/internal/cryptox"
	"github.com/uncommithq/uncommit/backend/internal/store"
)

type ProjectsHandler struct {
	cfg   config.Config
	store *store.Store
}

func NewProjectsHandler(cfg config.Config, st *store.Store) *ProjectsHandler {
	return &ProjectsHandler{cfg: cfg, store: st}
}

type saveProjectRequest struct {
	GitHubRepoID    int64  `json:"github_repo_id"`
	RepoOwner       string `json:"repo_owner"`
	RepoName        string `json:"repo_name"`
	PlanType        string `json:"plan_type"`
	CustomDomain    string `json:"custom_domain"`
	VersionSource   string `json:"version_source"`
	VersionStrategy string `json:"version_strategy"`
	PublishMode     string `json:"publish_mode"`
	APIKeyMode      string `json:"api_key_mode"`
	// Plaintext provider key; stored encrypted, never returned.
	LLMAPIKey string `json:"llm_api_key"`
}

func (r *saveProjectRequest) normalize() {
	if r.VersionSource == "" {
		r.VersionSource = "auto"
	}
	if r.VersionStrategy == "" {
		r.VersionStrategy = "any"
	}
	if r.PublishMode == "" {
		r.PublishMode = "draft"
	}
	if r.APIKeyMode == "" {
		r.APIKeyMode = "managed"
	}
	if r.PlanType == "" {
		r.PlanType = "free"
	}
}

func (r *saveProjectRequest) validate() string {
	switch r.VersionSource {
	case "auto", "uncommit":
	default:
		return "invalid_version_source"
	}
	switch r.VersionStrategy {
	case "any", "major-only":
	default:
		return "invalid_version_strategy"
	}
	switch r.PublishMode {
	case "auto", "draft":
	default:
		return "invalid_publish_mode"
	}
	switch r.APIKeyMode {
	case "managed", "own":
	default:
		return "invalid_api_key_mode"
	}
	return ""
}

// Save creates or updates the caller's project settings for a repository.
func (h *ProjectsHandler) Save() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := requireUserID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_user"})
		}

		var req saveProjectRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
		}
		req.normalize()
		if reason := req.validate(); reason != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": reason})
		}

		var encKey []byte
		if req.LLMAPIKey != "" {
			key, err := cryptox.KeyFromB64(h.cfg.TokenEncKeyB64)
			if err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "token_encryption_not_configured"})
			}
			encKey, err = cryptox.EncryptAESGCM(key, []byte(req.LLMAPIKey))
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "key_encrypt_failed"})
			}
		}

		project, err := h.store.SaveProjectSettings(c.Context(), userID, store.ProjectSettings{
			GitHubRepoID:    req.GitHubRepoID,
			RepoOwner:       req.RepoOwner,
			RepoName:        req.RepoName,
			PlanType:        req.PlanType,
			CustomDomain:    req.CustomDomain,
			VersionSource:   req.VersionSource,
			VersionStrategy: req.VersionStrategy,
			PublishMode:     req.PublishMode,
			APIKeyMode:      req.APIKeyMode,
			LLMAPIKeyEnc:    encKey,
		})
		if err != nil {
			slog.Error("project save failed", "user_id", userID.String(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "save_failed"})
		}

		return c.Status(fiber.StatusOK).JSON(projectJSON(project))
	}
}

// Mine lists the caller's projects.
func (h *ProjectsHandler) Mine() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := requireUserID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_user"})
		}

		projects, err := h.store.ProjectsForUser(c.Context(), userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "list_failed"})
		}

		out := make([]fiber.Map, 0, len(projects))
		for _, p := range projects {
			out = append(out, projectJSON(p))
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"projects": out})
	}
}

// Pricing returns the monthly price for a desired release volume.
func (h *ProjectsHandler) Pricing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		versions := c.QueryInt("versions_per_month", 0)
		if versions <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_versions_per_month"})
		}
		tier := billing.RecommendedTier(versions)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"versions_per_month": versions,
			"monthly_price":      billing.CalculatePrice(versions),
			"recommended_tier":   tier.Name,
		})
	}
}

func projectJSON(p store.Project) fiber.Map {
	return fiber.Map{
		"id":                 p.ID.String(),
		"github_repo_id":     p.GitHubRepoID,
		"repo_owner":         p.RepoOwner,
		"repo_name":          p.RepoName,
		"slug":               p.Slug,
		"custom_domain":      p.CustomDomain,
		"version_source":     p.VersionSource,
		"version_strategy":   p.VersionStrategy,
		"publish_mode":       p.PublishMode,
		"plan_type":          p.PlanType,
		"api_key_mode":       p.APIKeyMode,
		"has_llm_api_key":    len(p.LLMAPIKeyEnc) > 0,
		"versions_per_month": p.VersionsPerMonth,
		"monthly_price":      p.MonthlyPrice,
		"installed":          p.InstallationID != 0,
		"created_at":         p.CreatedAt,
		"updated_at":         p.UpdatedAt,
	}
}

func requireUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	sub, _ := c.Locals(auth.LocalUserID).(string)
	userID, err := uuid.Parse(sub)
	return userID, err == nil
}
