package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// CreateCommitComment posts a comment on a commit and returns the comment id
// so it can be edited later.
func (c *Client) CreateCommitComment(ctx context.Context, token string, owner, repo, commitSHA, body string) (int64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}

	u := c.baseURL() + "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) +
		"/commits/" + url.PathEscape(commitSHA) + "/comments"

	b, _ := json.Marshal(map[string]string{"body": body})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	c.setHeaders(req, token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("github commit comment failed: status %d", resp.StatusCode)
	}

	var out struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	if out.ID == 0 {
		return 0, fmt.Errorf("invalid github comment response")
	}
	return out.ID, nil
}

// UpdateCommitComment replaces the body of an existing commit comment.
func (c *Client) UpdateCommitComment(ctx context.Context, token string, owner, repo string, commentID int64, body string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	u := c.baseURL() + "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) +
		"/comments/" + strconv.FormatInt(commentID, 10)

	b, _ := json.Marshal(map[string]string{"body": body})

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewReader(b))
	if err != nil {
		return err
	}
	c.setHeaders(req, token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("github comment update failed: status %d", resp.StatusCode)
	}
	return nil
}
