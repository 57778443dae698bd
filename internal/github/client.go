package github

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.github.com"

type Client struct {
	HTTP      *http.Client
	UserAgent string

	// BaseURL is overridable for tests; defaults to the public API.
	BaseURL string

	limiter *rate.Limiter
}

func NewClient() *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: 10 * time.Second},
		UserAgent: "uncommit-backend",
		BaseURL:   defaultBaseURL,
		limiter:   rate.NewLimiter(rate.Every(250*time.Millisecond), 2), // ~4 req/s, burst 2
	}
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) setHeaders(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
}
