package apiclient

import (
	"context"
	"net/http"

	"robohub/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Login exchanges credentials for a token and the user's identity.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	body := registerRequest{Email: email, Password: password, FullName: fullName}
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the identity behind the current token.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
