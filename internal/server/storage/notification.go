package storage

import (
	"context"

	"github.com/iudanet/autopark/internal/models"
)

// NotificationStorage defines interface for user notifications
type NotificationStorage interface {
	// CreateNotification stores a new notification
	CreateNotification(ctx context.Context, n *models.Notification) error

	// ListNotifications returns the user's notifications, newest first
	ListNotifications(ctx context.Context, userID string) ([]*models.Notification, error)

	// MarkNotificationRead marks the user's notification as read
	// Returns ErrNotificationNotFound if it doesn't exist or belongs to another user
	MarkNotificationRead(ctx context.Context, userID, id string) error
}
