package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type CompareFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	// Patch is empty for binary files and oversized diffs.
	Patch string `json:"patch"`
}

// CompareCommits returns the changed files between two commits.
func (c *Client) CompareCommits(ctx context.Context, token string, owner, repo, base, head string) ([]CompareFile, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL() + "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) +
		"/compare/" + url.PathEscape(base) + "..." + url.PathEscape(head)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("github compare failed: status %d", resp.StatusCode)
	}

	var body struct {
		Files []CompareFile `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Files, nil
}
