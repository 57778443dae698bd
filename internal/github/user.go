package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (User, error) {
	if err := c.wait(ctx); err != nil {
		return User{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"/user", nil)
	if err != nil {
		return User{}, err
	}
	c.setHeaders(req, accessToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return User{}, fmt.Errorf("github /user failed: status %d", resp.StatusCode)
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return User{}, err
	}
	if u.ID == 0 || u.Login == "" {
		return User{}, fmt.Errorf("invalid github user response")
	}
	return u, nil
}
