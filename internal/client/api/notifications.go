package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/iudanet/autopark/pkg/api"
)

// PathNotifications lists the notifications of the current user.
const PathNotifications = "/notifications"

// ListNotifications возвращает уведомления пользователя
func (c *Client) ListNotifications(ctx context.Context, token string) (*api.NotificationsResponse, error) {
	var resp api.NotificationsResponse
	if err := c.AuthenticatedRequest(ctx, PathNotifications, token, Options{}, &resp); err != nil {
		return nil, fmt.Errorf("list notifications request failed: %w", err)
	}
	return &resp, nil
}

// MarkNotificationRead отмечает уведомление как прочитанное
func (c *Client) MarkNotificationRead(ctx context.Context, token, id string) error {
	path := fmt.Sprintf("%s/%s/read", PathNotifications, url.PathEscape(id))
	if err := c.AuthenticatedRequest(ctx, path, token, Options{Method: http.MethodPost}, nil); err != nil {
		return fmt.Errorf("mark notification read request failed: %w", err)
	}
	return nil
}
