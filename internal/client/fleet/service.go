// Package fleet lists vehicles across parking accounts and manages reservations.
package fleet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iudanet/autopark/internal/client/api"
	"github.com/iudanet/autopark/internal/client/auth"
	"github.com/iudanet/autopark/internal/validation"
	pkgapi "github.com/iudanet/autopark/pkg/api"
)

// Filter narrows the vehicle list.
type Filter = api.VehicleFilter

// Service предоставляет операции над автопарком и бронированиями
type Service struct {
	apiClient *api.Client
	refresher *auth.Refresher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService создает сервис автопарка
func NewService(apiClient *api.Client, refresher *auth.Refresher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		apiClient: apiClient,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// Vehicles возвращает список автомобилей
func (s *Service) Vehicles(ctx context.Context, filter Filter) ([]pkgapi.Vehicle, error) {
	return auth.WithRefresh(ctx, s.refresher, func(ctx context.Context, token string) ([]pkgapi.Vehicle, error) {
		return s.apiClient.ListVehicles(ctx, token, filter)
	})
}

// Vehicle возвращает автомобиль по ID
func (s *Service) Vehicle(ctx context.Context, id string) (*pkgapi.Vehicle, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("vehicle id cannot be empty")
	}
	return auth.WithRefresh(ctx, s.refresher, func(ctx context.Context, token string) (*pkgapi.Vehicle, error) {
		return s.apiClient.GetVehicle(ctx, token, id)
	})
}

// Reserve бронирует автомобиль на период [StartDate, EndDate).
// The range is checked locally; a start in the past is rejected.
func (s *Service) Reserve(ctx context.Context, req pkgapi.ReserveRequest) (*pkgapi.Reservation, error) {
	req.VehicleID = strings.TrimSpace(req.VehicleID)
	if req.VehicleID == "" {
		return nil, fmt.Errorf("vehicle id cannot be empty")
	}
	if err := validation.ValidateDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, fmt.Errorf("invalid reservation period: %w", err)
	}
	if req.StartDate.Before(s.now().Truncate(24 * time.Hour)) {
		return nil, fmt.Errorf("invalid reservation period: start date is in the past")
	}

	reservation, err := auth.WithRefresh(ctx, s.refresher, func(ctx context.Context, token string) (*pkgapi.Reservation, error) {
		return s.apiClient.CreateReservation(ctx, token, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "vehicle reserved",
		slog.String("vehicle_id", req.VehicleID),
		slog.String("reservation_id", reservation.ID))
	return reservation, nil
}

// Reservations возвращает бронирования текущего пользователя
func (s *Service) Reservations(ctx context.Context) ([]pkgapi.Reservation, error) {
	return auth.WithRefresh(ctx, s.refresher, func(ctx context.Context, token string) ([]pkgapi.Reservation, error) {
		return s.apiClient.ListReservations(ctx, token)
	})
}

// Cancel отменяет бронирование
func (s *Service) Cancel(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("reservation id cannot be empty")
	}
	return s.refresher.Do(ctx, func(ctx context.Context, token string) error {
		return s.apiClient.CancelReservation(ctx, token, id)
	})
}
