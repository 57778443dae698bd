package store

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/uncommithq/uncommit/backend/internal/slug"
)

const projectColumns = `
id, COALESCE(owner_user_id, '00000000-0000-0000-0000-000000000000'::uuid),
github_repo_id, repo_owner, repo_name, COALESCE(installation_id, 0),
slug, COALESCE(custom_domain, ''), version_source, version_strategy,
publish_mode, plan_type, api_key_mode, llm_api_key,
versions_per_month, monthly_price, created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.OwnerUserID,
		&p.GitHubRepoID, &p.RepoOwner, &p.RepoName, &p.InstallationID,
		&p.Slug, &p.CustomDomain, &p.VersionSource, &p.VersionStrategy,
		&p.PublishMode, &p.PlanType, &p.APIKeyMode, &p.LLMAPIKeyEnc,
		&p.VersionsPerMonth, &p.MonthlyPrice, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (s *Store) ProjectByGitHubRepoID(ctx context.Context, githubRepoID int64) (Project, bool, error) {
	p, err := scanProject(s.Pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE github_repo_id = $1`, githubRepoID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, false, nil
	}
	if err != nil {
		return Project{}, false, err
	}
	return p, true, nil
}

func (s *Store) ProjectByID(ctx context.Context, id uuid.UUID) (Project, bool, error) {
	p, err := scanProject(s.Pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, false, nil
	}
	if err != nil {
		return Project{}, false, err
	}
	return p, true, nil
}

func (s *Store) ProjectBySlug(ctx context.Context, projectSlug string) (Project, bool, error) {
	p, err := scanProject(s.Pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE slug = $1`, projectSlug))
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, false, nil
	}
	if err != nil {
		return Project{}, false, err
	}
	return p, true, nil
}

func (s *Store) ProjectByCustomDomain(ctx context.Context, domain string) (Project, bool, error) {
	normalized := NormalizeDomain(domain)
	if normalized == "" {
		return Project{}, false, nil
	}
	p, err := scanProject(s.Pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE custom_domain = $1`, normalized))
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, false, nil
	}
	if err != nil {
		return Project{}, false, err
	}
	return p, true, nil
}

func (s *Store) ProjectsForUser(ctx context.Context, userID uuid.UUID) ([]Project, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE owner_user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// BindInstallation creates a minimal claimable project row for a repository
// the app was installed on before anyone configured it in the dashboard, or
// rebinds the installation id after a reinstall.
func (s *Store) BindInstallation(ctx context.Context, githubRepoID int64, installationID int64, repoOwner, repoName string) (Project, error) {
	p, err := scanProject(s.Pool.QueryRow(ctx, `
INSERT INTO projects (github_repo_id, repo_owner, repo_name, installation_id, slug)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (github_repo_id) DO UPDATE SET
  installation_id = EXCLUDED.installation_id,
  repo_owner = EXCLUDED.repo_owner,
  repo_name = EXCLUDED.repo_name,
  updated_at = now()
RETURNING `+projectColumns,
		githubRepoID, repoOwner, repoName, installationID, newProjectSlug(repoName)))
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

type ProjectSettings struct {
	GitHubRepoID    int64
	RepoOwner       string
	RepoName        string
	PlanType        string
	CustomDomain    string
	VersionSource   string
	VersionStrategy string
	PublishMode     string
	APIKeyMode      string
	LLMAPIKeyEnc    []byte
}

// SaveProjectSettings creates or updates the caller's project for the given
// repository. The public slug is generated once at creation and never
// regenerated on settings changes.
func (s *Store) SaveProjectSettings(ctx context.Context, ownerUserID uuid.UUID, in ProjectSettings) (Project, error) {
	if in.RepoOwner == "" || in.RepoName == "" {
		return Project{}, fmt.Errorf("repo owner and name are required")
	}

	domain := NormalizeDomain(in.CustomDomain)

	existing, err := scanProject(s.Pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects
WHERE (owner_user_id = $1 OR owner_user_id IS NULL)
  AND repo_owner = $2 AND repo_name = $3`,
		ownerUserID, in.RepoOwner, in.RepoName))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if in.GitHubRepoID == 0 {
			return Project{}, fmt.Errorf("github repo id is required for a new project")
		}
		return scanProject(s.Pool.QueryRow(ctx, `
INSERT INTO projects (owner_user_id, github_repo_id, repo_owner, repo_name, slug,
  custom_domain, version_source, version_strategy, publish_mode, plan_type,
  api_key_mode, llm_api_key)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12)
RETURNING `+projectColumns,
			ownerUserID, in.GitHubRepoID, in.RepoOwner, in.RepoName, newProjectSlug(in.RepoName),
			domain, in.VersionSource, in.VersionStrategy, in.PublishMode, in.PlanType,
			in.APIKeyMode, in.LLMAPIKeyEnc))
	case err != nil:
		return Project{}, err
	}

	return scanProject(s.Pool.QueryRow(ctx, `
UPDATE projects SET
  owner_user_id = $2,
  github_repo_id = CASE WHEN $3::bigint = 0 THEN github_repo_id ELSE $3 END,
  custom_domain = NULLIF($4, ''),
  version_source = $5,
  version_strategy = $6,
  publish_mode = $7,
  plan_type = $8,
  api_key_mode = $9,
  llm_api_key = COALESCE($10, llm_api_key),
  updated_at = now()
WHERE id = $1
RETURNING `+projectColumns,
		existing.ID, ownerUserID, in.GitHubRepoID, domain,
		in.VersionSource, in.VersionStrategy, in.PublishMode, in.PlanType,
		in.APIKeyMode, in.LLMAPIKeyEnc))
}

// NormalizeDomain reduces a user-supplied custom domain to a lowercase
// hostname, or "" when it cannot be parsed.
func NormalizeDomain(domain string) string {
	trimmed := strings.TrimSpace(domain)
	if trimmed == "" {
		return ""
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func newProjectSlug(repoName string) string {
	return slug.Base(repoName) + "-" + randomSuffix(6)
}

func randomSuffix(n int) string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return strings.ToLower(uuid.NewString()[:n])
	}
	s := strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b))
	if len(s) > n {
		s = s[:n]
	}
	return s
}
