package api

import (
	"context"
	"fmt"
	"net/url"

	"pma-companion/pkg/models"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	IsAlzheimer bool   `json:"isAlzheimer"`
}

// Login authenticates against the backend and returns the stored user.
func (c *Client) Login(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := c.postJSON(ctx, "/api/login", LoginRequest{Username: username, Password: password}, &user); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if user.UserID == "" {
		return nil, fmt.Errorf("login response missing userId")
	}
	return &user, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	var user models.User
	if err := c.postJSON(ctx, "/api/register", req, &user); err != nil {
		return nil, fmt.Errorf("register failed: %w", err)
	}
	return &user, nil
}

func (c *Client) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "/api/user/"+url.PathEscape(userID), &user); err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", userID, err)
	}
	return &user, nil
}

func (c *Client) GetCurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "/api/user/current", &user); err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}
	return &user, nil
}
