package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iudanet/autopark/pkg/api"
)

// PathMe is the profile resource of the authenticated user.
const PathMe = "/auth/users/me"

// GetMe returns the profile of the token owner.
func (c *Client) GetMe(ctx context.Context, token string) (*api.User, error) {
	var user api.User
	if err := c.AuthenticatedRequest(ctx, PathMe, token, Options{}, &user); err != nil {
		return nil, fmt.Errorf("get profile request failed: %w", err)
	}
	return &user, nil
}

// UpdateMe sends a JSON profile update.
func (c *Client) UpdateMe(ctx context.Context, token string, req api.UpdateUserRequest) (*api.User, error) {
	var user api.User
	opts := Options{Method: http.MethodPut, Body: req}
	if err := c.AuthenticatedRequest(ctx, PathMe, token, opts, &user); err != nil {
		return nil, fmt.Errorf("update profile request failed: %w", err)
	}
	return &user, nil
}

// UploadPhoto sends a multipart profile update (photo upload).
func (c *Client) UploadPhoto(ctx context.Context, token string, form *Form) (*api.User, error) {
	var user api.User
	opts := Options{Method: http.MethodPut, Body: form}
	if err := c.AuthenticatedRequest(ctx, PathMe, token, opts, &user); err != nil {
		return nil, fmt.Errorf("upload photo request failed: %w", err)
	}
	return &user, nil
}
