// Package store is the Postgres persistence layer. A single *Store is
// constructed in main and handed to handlers and the pipeline; the pipeline
// consumes it through narrow interfaces so tests can substitute fakes.
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// Post status values.
const (
	StatusDraft       = "draft"
	StatusPublished   = "published"
	StatusUnpublished = "unpublished"
)

// Project is a tracked repository with its publishing configuration.
type Project struct {
	ID               uuid.UUID
	OwnerUserID      uuid.UUID // zero when the row was claimed by a webhook first
	GitHubRepoID     int64
	RepoOwner        string
	RepoName         string
	InstallationID   int64 // zero when no installation is bound
	Slug             string
	CustomDomain     string
	VersionSource    string
	VersionStrategy  string
	PublishMode      string
	PlanType         string
	APIKeyMode       string
	LLMAPIKeyEnc     []byte
	VersionsPerMonth int
	MonthlyPrice     float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Post is a persisted changelog entry.
type Post struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	Version     string
	Title       string
	Markdown    string
	Status      string
	Slug        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
}

// User is a dashboard account.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	AvatarURL string
	Role      string
}
