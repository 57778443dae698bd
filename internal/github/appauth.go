package github

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource yields short-lived installation tokens for acting on a
// repository as the GitHub App.
type TokenSource interface {
	InstallationToken(ctx context.Context, installationID int64) (string, error)
}

// AppAuth implements TokenSource by signing an app JWT with the GitHub App
// private key and exchanging it for installation tokens, cached until close
// to expiry.
type AppAuth struct {
	AppID string
	HTTP  *http.Client

	// BaseURL is overridable for tests; defaults to the public API.
	BaseURL string

	key *rsa.PrivateKey

	mu    sync.Mutex
	cache map[int64]cachedToken
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

func NewAppAuth(appID string, privateKeyPEM string) (*AppAuth, error) {
	if appID == "" {
		return nil, fmt.Errorf("GITHUB_APP_ID is required")
	}
	if privateKeyPEM == "" {
		return nil, fmt.Errorf("GITHUB_APP_PRIVATE_KEY is required")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse github app private key: %w", err)
	}
	return &AppAuth{
		AppID:   appID,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		BaseURL: defaultBaseURL,
		key:     key,
		cache:   map[int64]cachedToken{},
	}, nil
}

func (a *AppAuth) InstallationToken(ctx context.Context, installationID int64) (string, error) {
	if installationID == 0 {
		return "", fmt.Errorf("installation id is required")
	}

	a.mu.Lock()
	if t, ok := a.cache[installationID]; ok && time.Until(t.expiresAt) > time.Minute {
		a.mu.Unlock()
		return t.token, nil
	}
	a.mu.Unlock()

	appJWT, err := a.appJWT()
	if err != nil {
		return "", err
	}

	u := fmt.Sprintf("%s/app/installations/%d/access_tokens", a.baseURL(), installationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(nil))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+appJWT)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("github installation token failed: status %d", resp.StatusCode)
	}

	var out struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("invalid github installation token response")
	}

	a.mu.Lock()
	a.cache[installationID] = cachedToken{token: out.Token, expiresAt: out.ExpiresAt}
	a.mu.Unlock()

	return out.Token, nil
}

// appJWT signs the short-lived app-level JWT. GitHub caps exp at 10 minutes;
// iat is backdated 60s to absorb clock drift.
func (a *AppAuth) appJWT() (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    a.AppID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-60 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(9 * time.Minute)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(a.key)
}

func (a *AppAuth) baseURL() string {
	if a.BaseURL != "" {
		return a.BaseURL
	}
	return defaultBaseURL
}
