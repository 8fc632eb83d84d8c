// Package notify fetches user notifications and polls for new ones.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iudanet/autopark/internal/client/api"
	"github.com/iudanet/autopark/internal/client/auth"
	pkgapi "github.com/iudanet/autopark/pkg/api"
)

// Service предоставляет операции над уведомлениями
type Service struct {
	apiClient *api.Client
	refresher *auth.Refresher
	logger    *slog.Logger
}

// NewService создает сервис уведомлений
func NewService(apiClient *api.Client, refresher *auth.Refresher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		apiClient: apiClient,
		refresher: refresher,
		logger:    logger,
	}
}

// List возвращает уведомления пользователя, новые первыми
func (s *Service) List(ctx context.Context) (*pkgapi.NotificationsResponse, error) {
	return auth.WithRefresh(ctx, s.refresher, func(ctx context.Context, token string) (*pkgapi.NotificationsResponse, error) {
		return s.apiClient.ListNotifications(ctx, token)
	})
}

// UnreadCount возвращает число непрочитанных уведомлений
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	resp, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return resp.Unread, nil
}

// MarkRead отмечает уведомление прочитанным
func (s *Service) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("notification id cannot be empty")
	}
	return s.refresher.Do(ctx, func(ctx context.Context, token string) error {
		return s.apiClient.MarkNotificationRead(ctx, token, id)
	})
}
