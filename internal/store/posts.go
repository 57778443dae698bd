package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/uncommithq/uncommit/backend/internal/slug"
)

const postColumns = `
id, project_id, version, title, markdown, status, slug,
created_at, updated_at, published_at`

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(
		&p.ID, &p.ProjectID, &p.Version, &p.Title, &p.Markdown, &p.Status, &p.Slug,
		&p.CreatedAt, &p.UpdatedAt, &p.PublishedAt,
	)
	return p, err
}

type CreatePostParams struct {
	ProjectID uuid.UUID
	Version   string
	Title     string
	Markdown  string
	Status    string
}

// CreatePost inserts a post with a slug derived from version and title.
// When the post is created already published, published_at equals created_at.
// The (project_id, slug) unique index surfaces re-releases as errors.
func (s *Store) CreatePost(ctx context.Context, in CreatePostParams) (Post, error) {
	postSlug := slug.ForPost(in.Version, in.Title)
	return scanPost(s.Pool.QueryRow(ctx, `
INSERT INTO changelog_posts (project_id, version, title, markdown, status, slug, published_at)
VALUES ($1, $2, $3, $4, $5, $6,
  CASE WHEN $5 = 'published' THEN now() ELSE NULL END)
RETURNING `+postColumns,
		in.ProjectID, in.Version, in.Title, in.Markdown, in.Status, postSlug))
}

func (s *Store) PostByID(ctx context.Context, id uuid.UUID) (Post, bool, error) {
	p, err := scanPost(s.Pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM changelog_posts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, false, nil
	}
	if err != nil {
		return Post{}, false, err
	}
	return p, true, nil
}

func (s *Store) PostsForProject(ctx context.Context, projectID uuid.UUID) ([]Post, error) {
	return s.queryPosts(ctx,
		`SELECT `+postColumns+` FROM changelog_posts WHERE project_id = $1 ORDER BY created_at DESC`,
		projectID)
}

func (s *Store) PublishedPostsForProject(ctx context.Context, projectID uuid.UUID) ([]Post, error) {
	return s.queryPosts(ctx,
		`SELECT `+postColumns+` FROM changelog_posts
WHERE project_id = $1 AND status = 'published'
ORDER BY published_at DESC`,
		projectID)
}

func (s *Store) PublishedPostBySlug(ctx context.Context, projectID uuid.UUID, postSlug string) (Post, bool, error) {
	p, err := scanPost(s.Pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM changelog_posts
WHERE project_id = $1 AND slug = $2 AND status = 'published'`,
		projectID, postSlug))
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, false, nil
	}
	if err != nil {
		return Post{}, false, err
	}
	return p, true, nil
}

// UpdatePostContent edits title and markdown and re-derives the slug from the
// stored version and the new title. Nothing else touches the slug.
func (s *Store) UpdatePostContent(ctx context.Context, id uuid.UUID, title, markdown string) (Post, error) {
	existing, ok, err := s.PostByID(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if !ok {
		return Post{}, pgx.ErrNoRows
	}
	return scanPost(s.Pool.QueryRow(ctx, `
UPDATE changelog_posts
SET title = $2, markdown = $3, slug = $4, updated_at = now()
WHERE id = $1
RETURNING `+postColumns,
		id, title, markdown, slug.ForPost(existing.Version, title)))
}

// PublishPost transitions a post into published. published_at is set only on
// the first transition and survives later unpublish/publish cycles.
func (s *Store) PublishPost(ctx context.Context, id uuid.UUID) (Post, error) {
	return scanPost(s.Pool.QueryRow(ctx, `
UPDATE changelog_posts
SET status = 'published', published_at = COALESCE(published_at, now()), updated_at = now()
WHERE id = $1
RETURNING `+postColumns, id))
}

func (s *Store) UnpublishPost(ctx context.Context, id uuid.UUID) (Post, error) {
	return scanPost(s.Pool.QueryRow(ctx, `
UPDATE changelog_posts
SET status = 'unpublished', updated_at = now()
WHERE id = $1
RETURNING `+postColumns, id))
}

func (s *Store) DeletePost(ctx context.Context, id uuid.UUID) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM changelog_posts WHERE id = $1`, id)
	return err
}

func (s *Store) queryPosts(ctx context.Context, sql string, args ...any) ([]Post, error) {
	rows, err := s.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
