package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iudanet/autopark/internal/models"
	"github.com/iudanet/autopark/internal/server/storage"
	"github.com/iudanet/autopark/pkg/api"
)

// NotificationsHandler обслуживает /notifications
type NotificationsHandler struct {
	logger        *slog.Logger
	notifications storage.NotificationStorage
}

// NewNotificationsHandler создает handler уведомлений
func NewNotificationsHandler(logger *slog.Logger, notifications storage.NotificationStorage) *NotificationsHandler {
	return &NotificationsHandler{logger: logger, notifications: notifications}
}

// List обрабатывает GET /notifications
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		SendError(w, h.logger, http.StatusUnauthorized, api.CodeUnauthorized, "unauthorized")
		return
	}

	list, err := h.notifications.ListNotifications(r.Context(), userID)
	if err != nil {
		internalError(w, r, h.logger, "failed to list notifications", err)
		return
	}

	resp := api.NotificationsResponse{Notifications: make([]api.Notification, 0, len(list))}
	for _, n := range list {
		resp.Notifications = append(resp.Notifications, toAPINotification(n))
		if !n.Read {
			resp.Unread++
		}
	}

	SendJSON(w, h.logger, resp, http.StatusOK)
}

// MarkRead обрабатывает POST /notifications/{id}/read
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		SendError(w, h.logger, http.StatusUnauthorized, api.CodeUnauthorized, "unauthorized")
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		SendError(w, h.logger, http.StatusBadRequest, api.CodeValidation, "notification id is required")
		return
	}

	if err := h.notifications.MarkNotificationRead(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotificationNotFound) {
			SendError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "notification not found")
			return
		}
		internalError(w, r, h.logger, "failed to mark notification read", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toAPINotification(n *models.Notification) api.Notification {
	return api.Notification{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
