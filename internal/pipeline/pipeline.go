package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/uncommithq/uncommit/backend/internal/cryptox"
	"github.com/uncommithq/uncommit/backend/internal/events"
	"github.com/uncommithq/uncommit/backend/internal/store"
)

// State is one stage of the changelog pipeline. Steps run strictly in
// order; the only branch is the release decision out of StateDetecting.
type State int

const (
	StateDetecting State = iota
	StateCommenting
	StateFetchingDiff
	StateGenerating
	StateSaving
	StateUpdatingComment
	StateDone
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StateDetecting:
		return "detecting"
	case StateCommenting:
		return "commenting"
	case StateFetchingDiff:
		return "fetching_diff"
	case StateGenerating:
		return "generating"
	case StateSaving:
		return "saving"
	case StateUpdatingComment:
		return "updating_comment"
	case StateDone:
		return "done"
	case StateSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// TokenSource yields installation tokens (see github.AppAuth).
type TokenSource interface {
	InstallationToken(ctx context.Context, installationID int64) (string, error)
}

// Commenter posts and later edits the commit progress comment.
type Commenter interface {
	CreateCommitComment(ctx context.Context, token, owner, repo, commitSHA, body string) (int64, error)
	UpdateCommitComment(ctx context.Context, token, owner, repo string, commentID int64, body string) error
}

// ProjectStore loads the project's billing and key configuration at the
// start of a run.
type ProjectStore interface {
	ProjectByID(ctx context.Context, id uuid.UUID) (store.Project, bool, error)
}

// PostStore persists the generated post and its usage record.
type PostStore interface {
	CreatePost(ctx context.Context, in store.CreatePostParams) (store.Post, error)
	ReleaseUsageThisMonth(ctx context.Context, projectID uuid.UUID) (int, error)
	RecordReleaseUsage(ctx context.Context, projectID uuid.UUID, version string) error
}

type Pipeline struct {
	Tokens    TokenSource
	Contents  ContentsFetcher
	Compare   CompareFetcher
	Comments  Commenter
	Projects  ProjectStore
	Posts     PostStore
	Generator *Generator

	// AppBaseURL is the hosted changelog origin used for public and draft
	// links.
	AppBaseURL string

	// EncKey decrypts per-project provider keys; nil disables them.
	EncKey []byte
}

type Result struct {
	Skipped bool
	Reason  string
	Version string
	PostID  uuid.UUID
	Link    string
}

// Run executes one pipeline invocation for one push. Invocations are
// independent: two rapid pushes to the same project race freely and are not
// deduplicated. Failure of any step after detection aborts the run with no
// rollback of earlier side effects; a post saved before a comment-update
// failure stays saved, and the "Analyzing..." comment stays dangling.
func (p *Pipeline) Run(ctx context.Context, job events.ChangelogPipelineRun) (Result, error) {
	projectID, err := uuid.Parse(job.ProjectID)
	if err != nil {
		return Result{}, fmt.Errorf("invalid project id %q: %w", job.ProjectID, err)
	}
	if job.InstallationID == 0 {
		return Result{}, fmt.Errorf("missing installation id for project %s", job.ProjectID)
	}

	project, ok, err := p.Projects.ProjectByID(ctx, projectID)
	if err != nil {
		return Result{}, fmt.Errorf("load project: %w", err)
	}
	if !ok {
		return Result{Skipped: true, Reason: "project_deleted"}, nil
	}

	token, err := p.Tokens.InstallationToken(ctx, job.InstallationID)
	if err != nil {
		return Result{}, fmt.Errorf("installation token: %w", err)
	}

	var (
		detection Detection
		commentID int64
		diff      string
		markdown  string
		saved     store.Post
		link      string
	)

	state := StateDetecting
	for state != StateDone && state != StateSkipped {
		slog.Debug("pipeline step",
			"project_id", job.ProjectID,
			"state", state.String(),
		)

		switch state {
		case StateDetecting:
			detection, err = (&Detector{Contents: p.Contents}).Detect(ctx, DetectParams{
				Token:           token,
				RepoOwner:       job.RepoOwner,
				RepoName:        job.RepoName,
				BeforeSHA:       job.BeforeSHA,
				AfterSHA:        job.AfterSHA,
				VersionSource:   job.VersionSource,
				VersionStrategy: job.VersionStrategy,
			})
			if err != nil {
				return Result{}, fmt.Errorf("detect version: %w", err)
			}
			if !detection.ShouldRelease || detection.Version == "" {
				return Result{Skipped: true, Reason: "no_version_change"}, nil
			}
			if exhausted, err := p.quotaExhausted(ctx, project); err != nil {
				return Result{}, err
			} else if exhausted {
				slog.Warn("release quota exhausted, skipping release",
					"project_id", job.ProjectID,
					"version", detection.Version,
				)
				return Result{Skipped: true, Reason: "quota_exhausted", Version: detection.Version}, nil
			}
			state = StateCommenting

		case StateCommenting:
			body := fmt.Sprintf("Analyzing code differences for v%s to draft the changelog...", detection.Version)
			commentID, err = p.Comments.CreateCommitComment(ctx, token, job.RepoOwner, job.RepoName, job.AfterSHA, body)
			if err != nil {
				return Result{}, fmt.Errorf("post commit comment: %w", err)
			}
			state = StateFetchingDiff

		case StateFetchingDiff:
			diff, err = (&DiffFetcher{Compare: p.Compare}).Fetch(ctx, token, job.RepoOwner, job.RepoName, job.BeforeSHA, job.AfterSHA)
			if err != nil {
				return Result{}, fmt.Errorf("fetch diff: %w", err)
			}
			state = StateGenerating

		case StateGenerating:
			markdown = p.Generator.Notes(ctx, detection.Version, diff, p.projectAPIKey(project))
			state = StateSaving

		case StateSaving:
			status := store.StatusDraft
			if job.PublishMode == "auto" {
				status = store.StatusPublished
			}
			saved, err = p.Posts.CreatePost(ctx, store.CreatePostParams{
				ProjectID: projectID,
				Version:   detection.Version,
				Title:     "v" + detection.Version,
				Markdown:  markdown,
				Status:    status,
			})
			if err != nil {
				return Result{}, fmt.Errorf("save changelog: %w", err)
			}
			if err := p.Posts.RecordReleaseUsage(ctx, projectID, detection.Version); err != nil {
				slog.Warn("release usage record failed",
					"project_id", job.ProjectID,
					"error", err,
				)
			}
			state = StateUpdatingComment

		case StateUpdatingComment:
			link = p.publicLink(job, saved)
			label := "Draft ready"
			if job.PublishMode == "auto" {
				label = "Published"
			}
			if err := p.Comments.UpdateCommitComment(ctx, token, job.RepoOwner, job.RepoName, commentID, label+": "+link); err != nil {
				return Result{}, fmt.Errorf("update commit comment: %w", err)
			}
			state = StateDone
		}
	}

	return Result{Version: detection.Version, PostID: saved.ID, Link: link}, nil
}

// publicLink points at the custom domain when one is configured, otherwise
// the hosted changelog path; drafts link into the dashboard editor.
func (p *Pipeline) publicLink(job events.ChangelogPipelineRun, saved store.Post) string {
	if job.PublishMode == "auto" {
		if job.CustomDomain != "" {
			return "https://" + job.CustomDomain + "/" + saved.Slug
		}
		return p.AppBaseURL + "/" + job.Slug + "/" + saved.Slug
	}
	return p.AppBaseURL + "/dashboard/edit/" + saved.ID.String()
}

func (p *Pipeline) quotaExhausted(ctx context.Context, project store.Project) (bool, error) {
	if project.APIKeyMode != "managed" || project.VersionsPerMonth <= 0 {
		return false, nil
	}
	used, err := p.Posts.ReleaseUsageThisMonth(ctx, project.ID)
	if err != nil {
		return false, fmt.Errorf("release usage: %w", err)
	}
	return used >= project.VersionsPerMonth, nil
}

func (p *Pipeline) projectAPIKey(project store.Project) string {
	if project.APIKeyMode != "own" || len(project.LLMAPIKeyEnc) == 0 || len(p.EncKey) == 0 {
		return ""
	}
	key, err := cryptox.DecryptAESGCM(p.EncKey, project.LLMAPIKeyEnc)
	if err != nil {
		slog.Warn("project llm key decrypt failed", "project_id", project.ID.String())
		return ""
	}
	return string(key)
}
