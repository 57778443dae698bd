package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/uncommithq/uncommit/backend/internal/bus"
	"github.com/uncommithq/uncommit/backend/internal/config"
	"github.com/uncommithq/uncommit/backend/internal/events"
	"github.com/uncommithq/uncommit/backend/internal/pipeline"
	"github.com/uncommithq/uncommit/backend/internal/store"
)

// PipelineRunner executes one changelog run inline when no event bus is
// configured.
type PipelineRunner interface {
	Run(ctx context.Context, job events.ChangelogPipelineRun) (pipeline.Result, error)
}

type GitHubWebhooksHandler struct {
	cfg    config.Config
	store  *store.Store
	bus    bus.Bus
	runner PipelineRunner
}

func NewGitHubWebhooksHandler(cfg config.Config, st *store.Store, b bus.Bus, runner PipelineRunner) *GitHubWebhooksHandler {
	return &GitHubWebhooksHandler{cfg: cfg, store: st, bus: b, runner: runner}
}

const zeroSHA = "0000000000000000000000000000000000000000"

func (h *GitHubWebhooksHandler) Receive() fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := c.Body()
		delivery := strings.TrimSpace(c.Get("X-GitHub-Delivery"))
		event := strings.TrimSpace(c.Get("X-GitHub-Event"))
		sig := strings.TrimSpace(c.Get("X-Hub-Signature-256"))

		if h.cfg.GitHubWebhookSecret == "" {
			slog.Error("github webhook secret not configured", "delivery_id", delivery)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "webhook_secret_not_configured"})
		}

		if !verifyGitHubSignature(h.cfg.GitHubWebhookSecret, body, sig) {
			slog.Warn("github webhook signature verification failed",
				"delivery_id", delivery,
				"event", event,
				"has_signature", sig != "",
			)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
		}

		if event != "push" {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
		}

		var payload pushPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			slog.Warn("github push payload unmarshal failed", "delivery_id", delivery, "error", err)
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
		}

		// Only pushes to the default branch produce releases.
		if payload.Ref != "refs/heads/"+payload.Repository.DefaultBranch {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
		}
		// Branch deletions push a zero head commit.
		if payload.After == "" || payload.After == zeroSHA {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
		}

		job, skip, err := h.resolve(c.Context(), payload)
		if err != nil {
			slog.Error("webhook project resolution failed",
				"delivery_id", delivery,
				"repo", payload.Repository.FullName,
				"error", err,
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "resolve_failed"})
		}
		if skip != "" {
			slog.Info("github push skipped",
				"delivery_id", delivery,
				"repo", payload.Repository.FullName,
				"reason", skip,
			)
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "skipped": skip})
		}

		// Preferred path: publish to NATS and return immediately; the worker
		// runs the pipeline.
		if h.bus != nil {
			raw, err := json.Marshal(job)
			if err != nil {
				slog.Error("pipeline job marshal failed", "delivery_id", delivery, "error", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "enqueue_failed"})
			}
			if err := h.bus.Publish(c.Context(), events.SubjectChangelogPipelineRun, raw); err != nil {
				slog.Error("pipeline job publish failed", "delivery_id", delivery, "error", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "enqueue_failed"})
			}
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "queued": true})
		}

		// Fallback path (no NATS): run the pipeline inline.
		if h.runner == nil {
			slog.Warn("no pipeline runner configured, push dropped", "delivery_id", delivery)
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
		}
		result, err := h.runner.Run(c.Context(), job)
		if err != nil {
			slog.Error("inline pipeline run failed",
				"delivery_id", delivery,
				"repo", payload.Repository.FullName,
				"error", err,
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "pipeline_failed"})
		}
		if result.Skipped {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "skipped": result.Reason})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "version": result.Version})
	}
}

// resolve maps the push to a tracked project, binding or rebinding the
// installation id as a side effect. A non-empty skip reason means the push
// is acknowledged but produces no pipeline run.
func (h *GitHubWebhooksHandler) resolve(ctx context.Context, payload pushPayload) (events.ChangelogPipelineRun, string, error) {
	repoID := payload.Repository.ID
	installationID := payload.Installation.ID

	project, found, err := h.store.ProjectByGitHubRepoID(ctx, repoID)
	if err != nil {
		return events.ChangelogPipelineRun{}, "", err
	}

	switch {
	case !found && installationID == 0:
		return events.ChangelogPipelineRun{}, "missing_installation", nil
	case !found, installationID != 0 && project.InstallationID != installationID:
		// First sighting of this repo, or the app was reinstalled under a
		// new installation: (re)bind and continue with the stored settings.
		project, err = h.store.BindInstallation(ctx, repoID, installationID, payload.Repository.Owner.Login, payload.Repository.Name)
		if err != nil {
			return events.ChangelogPipelineRun{}, "", err
		}
	}
	if project.InstallationID == 0 {
		return events.ChangelogPipelineRun{}, "missing_installation", nil
	}

	return events.ChangelogPipelineRun{
		ProjectID:       project.ID.String(),
		GitHubRepoID:    repoID,
		RepoOwner:       project.RepoOwner,
		RepoName:        project.RepoName,
		InstallationID:  project.InstallationID,
		BeforeSHA:       payload.Before,
		AfterSHA:        payload.After,
		VersionSource:   project.VersionSource,
		VersionStrategy: project.VersionStrategy,
		PublishMode:     project.PublishMode,
		PlanType:        project.PlanType,
		Slug:            project.Slug,
		CustomDomain:    project.CustomDomain,
	}, "", nil
}

// verifyGitHubSignature checks X-Hub-Signature-256 ("sha256=<hex>") against
// an HMAC-SHA256 of the raw body, in constant time.
func verifyGitHubSignature(secret string, body []byte, header string) bool {
	if !strings.HasPrefix(header, "sha256=") {
		return false
	}
	got := strings.ToLower(strings.TrimPrefix(header, "sha256="))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

type pushPayload struct {
	Ref    string `json:"ref"`
	Before string `json:"before"`
	After  string `json:"after"`

	Repository struct {
		ID            int64  `json:"id"`
		Name          string `json:"name"`
		FullName      string `json:"full_name"`
		DefaultBranch string `json:"default_branch"`
		Owner         struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`

	Installation struct {
		ID int64 `json:"id"`
	} `json:"installation"`
}
