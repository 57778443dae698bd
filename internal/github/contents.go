package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// FileContentAtRef fetches a file's decoded content at a specific commit.
//
// A missing file (404) and a path that resolves to a directory are reported
// as absent (ok=false) rather than errors, so version detection can fall
// through candidate files without try/catch-style handling. Transport and
// auth failures are real errors.
func (c *Client) FileContentAtRef(ctx context.Context, token string, owner, repo, path, ref string) (string, bool, error) {
	if err := c.wait(ctx); err != nil {
		return "", false, err
	}

	u := c.baseURL() + "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) +
		"/contents/" + escapePath(path) + "?ref=" + url.QueryEscape(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", false, err
	}
	c.setHeaders(req, token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false, fmt.Errorf("github contents fetch failed: status %d", resp.StatusCode)
	}

	// A directory listing decodes as a JSON array; treat it as absent.
	var body struct {
		Type     string `json:"type"`
		Encoding string `json:"encoding"`
		Content  string `json:"content"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&body); err != nil {
		return "", false, nil
	}
	if body.Content == "" || (body.Type != "" && body.Type != "file") {
		return "", false, nil
	}

	// GitHub base64 payloads are newline-wrapped.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(body.Content, "\n", ""))
	if err != nil {
		return "", false, nil
	}
	return string(raw), true, nil
}

// escapePath escapes each path segment while keeping separators.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return strings.Join(parts, "/")
}
