package handlers

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/uncommithq/uncommit/backend/internal/store"
)

type PostsHandler struct {
	store *store.Store
}

func NewPostsHandler(st *store.Store) *PostsHandler {
	return &PostsHandler{store: st}
}

// ListForProject returns all posts of one of the caller's projects,
// including drafts.
func (h *PostsHandler) ListForProject() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := requireUserID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_user"})
		}

		project, err := h.ownedProject(c, userID)
		if err != nil {
			return err
		}
		if project == nil {
			return nil // response already written
		}

		posts, err := h.store.PostsForProject(c.Context(), project.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "list_failed"})
		}

		out := make([]fiber.Map, 0, len(posts))
		for _, p := range posts {
			out = append(out, postJSON(p))
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"posts": out})
	}
}

type createPostRequest struct {
	Version  string `json:"version"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	Publish  bool   `json:"publish"`
}

// Create adds a manual post outside the webhook pipeline.
func (h *PostsHandler) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := requireUserID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_user"})
		}

		project, err := h.ownedProject(c, userID)
		if err != nil {
			return err
		}
		if project == nil {
			return nil
		}

		var req createPostRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
		}
		req.Version = strings.TrimSpace(req.Version)
		req.Title = strings.TrimSpace(req.Title)
		if req.Version == "" || req.Title == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "version_and_title_required"})
		}

		status := store.StatusDraft
		if req.Publish {
			status = store.StatusPublished
		}

		post, err := h.store.CreatePost(c.Context(), store.CreatePostParams{
			ProjectID: project.ID,
			Version:   req.Version,
			Title:     req.Title,
			Markdown:  req.Markdown,
			Status:    status,
		})
		if err != nil {
			slog.Error("manual post create failed", "project_id", project.ID.String(), "error", err)
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "create_failed"})
		}

		return c.Status(fiber.StatusCreated).JSON(postJSON(post))
	}
}

// Get returns a single post for editing.
func (h *PostsHandler) Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		post, err := h.ownedPost(c)
		if err != nil {
			return err
		}
		if post == nil {
			return nil
		}
		return c.Status(fiber.StatusOK).JSON(postJSON(*post))
	}
}

type updatePostRequest struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

// Update rewrites title and markdown; the slug is re-derived from the
// stored version and the new title, so published URLs change with the
// title.
func (h *PostsHandler) Update() fiber.Handler {
	return func(c *fiber.Ctx) error {
		post, err := h.ownedPost(c)
		if err != nil {
			return err
		}
		if post == nil {
			return nil
		}

		var req updatePostRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
		}
		req.Title = strings.TrimSpace(req.Title)
		if req.Title == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title_required"})
		}

		updated, err := h.store.UpdatePostContent(c.Context(), post.ID, req.Title, req.Markdown)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update_failed"})
		}
		return c.Status(fiber.StatusOK).JSON(postJSON(updated))
	}
}

func (h *PostsHandler) Publish() fiber.Handler {
	return func(c *fiber.Ctx) error {
		post, err := h.ownedPost(c)
		if err != nil {
			return err
		}
		if post == nil {
			return nil
		}

		updated, err := h.store.PublishPost(c.Context(), post.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "publish_failed"})
		}
		return c.Status(fiber.StatusOK).JSON(postJSON(updated))
	}
}

func (h *PostsHandler) Unpublish() fiber.Handler {
	return func(c *fiber.Ctx) error {
		post, err := h.ownedPost(c)
		if err != nil {
			return err
		}
		if post == nil {
			return nil
		}

		updated, err := h.store.UnpublishPost(c.Context(), post.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "unpublish_failed"})
		}
		return c.Status(fiber.StatusOK).JSON(postJSON(updated))
	}
}

func (h *PostsHandler) Delete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		post, err := h.ownedPost(c)
		if err != nil {
			return err
		}
		if post == nil {
			return nil
		}

		if err := h.store.DeletePost(c.Context(), post.ID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "delete_failed"})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	}
}

// ownedProject loads the :id project and checks ownership. A nil project
// with nil error means the rejection response was already written.
func (h *PostsHandler) ownedProject(c *fiber.Ctx, userID uuid.UUID) (*store.Project, error) {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_project_id"})
	}

	project, found, err := h.store.ProjectByID(c.Context(), projectID)
	if err != nil {
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup_failed"})
	}
	if !found || project.OwnerUserID != userID {
		// Treat other users' projects as nonexistent.
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project_not_found"})
	}
	return &project, nil
}

// ownedPost loads the :id post and checks that the caller owns its project.
func (h *PostsHandler) ownedPost(c *fiber.Ctx) (*store.Post, error) {
	userID, ok := requireUserID(c)
	if !ok {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_user"})
	}

	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_post_id"})
	}

	post, found, err := h.store.PostByID(c.Context(), postID)
	if err != nil {
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup_failed"})
	}
	if !found {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post_not_found"})
	}

	project, projFound, err := h.store.ProjectByID(c.Context(), post.ProjectID)
	if err != nil {
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup_failed"})
	}
	if !projFound || project.OwnerUserID != userID {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post_not_found"})
	}
	return &post, nil
}

func postJSON(p store.Post) fiber.Map {
	return fiber.Map{
		"id":           p.ID.String(),
		"project_id":   p.ProjectID.String(),
		"version":      p.Version,
		"title":        p.Title,
		"markdown":     p.Markdown,
		"status":       p.Status,
		"slug":         p.Slug,
		"created_at":   p.CreatedAt,
		"updated_at":   p.UpdatedAt,
		"published_at": p.PublishedAt,
	}
}
