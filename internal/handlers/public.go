package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/uncommithq/uncommit/backend/internal/store"
)

// PublicHandler serves the read-only changelog pages. Projects are
// addressed by slug, or by custom domain when the request Host matches one.
type PublicHandler struct {
	store *store.Store
}

func NewPublicHandler(st *store.Store) *PublicHandler {
	return &PublicHandler{store: st}
}

// ProjectFeed lists published posts, newest first.
func (h *PublicHandler) ProjectFeed() fiber.Handler {
	return func(c *fiber.Ctx) error {
		project, err := h.resolveProject(c)
		if err != nil {
			return err
		}
		if project == nil {
			return nil
		}

		posts, err := h.store.PublishedPostsForProject(c.Context(), project.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "list_failed"})
		}

		out := make([]fiber.Map, 0, len(posts))
		for _, p := range posts {
			out = append(out, publicPostJSON(p))
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"project": fiber.Map{
				"slug":      project.Slug,
				"repo_name": project.RepoName,
			},
			"posts": out,
		})
	}
}

// Post serves one published post. Drafts and unpublished posts 404.
func (h *PublicHandler) Post() fiber.Handler {
	return func(c *fiber.Ctx) error {
		project, err := h.resolveProject(c)
		if err != nil {
			return err
		}
		if project == nil {
			return nil
		}

		post, found, err := h.store.PublishedPostBySlug(c.Context(), project.ID, c.Params("postSlug"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup_failed"})
		}
		if !found {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post_not_found"})
		}

		return c.Status(fiber.StatusOK).JSON(publicPostJSON(post))
	}
}

// resolveProject tries the path slug first, then the request Host as a
// custom domain. A nil project with nil error means 404 was already
// written.
func (h *PublicHandler) resolveProject(c *fiber.Ctx) (*store.Project, error) {
	projectSlug := c.Params("slug")

	project, found, err := h.store.ProjectBySlug(c.Context(), projectSlug)
	if err != nil {
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup_failed"})
	}
	if !found {
		host := strings.ToLower(c.Hostname())
		project, found, err = h.store.ProjectByCustomDomain(c.Context(), host)
		if err != nil {
			return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup_failed"})
		}
	}
	if !found {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project_not_found"})
	}
	return &project, nil
}

func publicPostJSON(p store.Post) fiber.Map {
	return fiber.Map{
		"version":      p.Version,
		"title":        p.Title,
		"markdown":     p.Markdown,
		"slug":         p.Slug,
		"published_at": p.PublishedAt,
	}
}
