package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iudanet/autopark/pkg/api"
)

// Auth endpoints, relative to the base URL.
const (
	PathRegister = "/auth/register"
	PathLogin    = "/auth/login"
	PathRefresh  = "/auth/refresh"
	PathLogout   = "/auth/logout"
)

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.User, error) {
	var resp api.User
	err := c.Request(ctx, PathRegister, Options{Method: http.MethodPost, Body: req}, &resp)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.Request(ctx, PathLogin, Options{Method: http.MethodPost, Body: req}, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh обменивает refresh token на новую пару токенов
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	body := api.RefreshRequest{RefreshToken: refreshToken}
	err := c.Request(ctx, PathRefresh, Options{Method: http.MethodPost, Body: body}, &resp)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, fmt.Errorf("refresh request failed: incomplete token pair in response")
	}
	return &resp, nil
}

// Logout уведомляет сервер о выходе пользователя
func (c *Client) Logout(ctx context.Context, accessToken string) (*api.MessageResponse, error) {
	var resp api.MessageResponse
	err := c.AuthenticatedRequest(ctx, PathLogout, accessToken, Options{Method: http.MethodPost}, &resp)
	if err != nil {
		return nil, fmt.Errorf("logout request failed: %w", err)
	}
	return &resp, nil
}
