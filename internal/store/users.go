package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type GitHubIdentity struct {
	GitHubUserID int64
	Login        string
	Name         string
	Email        string
	AvatarURL    string
}

// UpsertUserFromGitHub finds or creates the account behind a GitHub login
// and stores the encrypted OAuth access token for later API calls.
func (s *Store) UpsertUserFromGitHub(ctx context.Context, id GitHubIdentity, encToken []byte) (User, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var u User
	err = tx.QueryRow(ctx, `
SELECT u.id, COALESCE(u.email, ''), COALESCE(u.name, ''), COALESCE(u.avatar_url, ''), u.role
FROM github_accounts ga
JOIN users u ON u.id = ga.user_id
WHERE ga.github_user_id = $1
`, id.GitHubUserID).Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		err = tx.QueryRow(ctx, `
INSERT INTO users (email, name, avatar_url)
VALUES (NULLIF($1, ''), NULLIF($2, ''), NULLIF($3, ''))
RETURNING id, COALESCE(email, ''), COALESCE(name, ''), COALESCE(avatar_url, ''), role
`, id.Email, id.Name, id.AvatarURL).Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Role)
		if err != nil {
			return User{}, err
		}
	} else if err != nil {
		return User{}, err
	}

	_, err = tx.Exec(ctx, `
INSERT INTO github_accounts (user_id, github_user_id, login, access_token)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET
  github_user_id = EXCLUDED.github_user_id,
  login = EXCLUDED.login,
  access_token = EXCLUDED.access_token,
  updated_at = now()
`, u.ID, id.GitHubUserID, id.Login, encToken)
	if err != nil {
		return User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Store) GitHubLoginForUser(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	var login string
	err := s.Pool.QueryRow(ctx,
		`SELECT login FROM github_accounts WHERE user_id = $1`, userID).Scan(&login)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return login, true, nil
}

// CreateOAuthState stores a one-shot CSRF state. userID may be uuid.Nil for
// login flows that have no authenticated user yet.
func (s *Store) CreateOAuthState(ctx context.Context, state string, userID uuid.UUID, kind string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	var uid any
	if userID != uuid.Nil {
		uid = userID
	}
	_, err := s.Pool.Exec(ctx, `
INSERT INTO oauth_states (state, user_id, kind, expires_at)
VALUES ($1, $2, $3, $4)
`, state, uid, kind, time.Now().UTC().Add(ttl))
	return err
}

// ConsumeOAuthState marks a state used and returns its kind and bound user.
// Expired, unknown and reused states all report ok=false.
func (s *Store) ConsumeOAuthState(ctx context.Context, state string) (kind string, userID uuid.UUID, ok bool, err error) {
	var uid *uuid.UUID
	err = s.Pool.QueryRow(ctx, `
UPDATE oauth_states
SET used_at = now()
WHERE state = $1 AND used_at IS NULL AND expires_at > now()
RETURNING kind, user_id
`, state).Scan(&kind, &uid)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", uuid.Nil, false, nil
	}
	if err != nil {
		return "", uuid.Nil, false, err
	}
	if uid != nil {
		userID = *uid
	}
	return kind, userID, true, nil
}
