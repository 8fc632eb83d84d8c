package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iudanet/autopark/pkg/api"
)

// Fleet endpoints.
const (
	PathVehicles     = "/vehicles"
	PathReservations = "/reservations"
)

// VehicleFilter narrows GET /vehicles.
type VehicleFilter struct {
	Available *bool
	AccountID string
}

func (f VehicleFilter) query() string {
	q := url.Values{}
	if f.AccountID != "" {
		q.Set("account", f.AccountID)
	}
	if f.Available != nil {
		q.Set("available", strconv.FormatBool(*f.Available))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListVehicles возвращает список автомобилей по всем площадкам
func (c *Client) ListVehicles(ctx context.Context, token string, filter VehicleFilter) ([]api.Vehicle, error) {
	var resp api.VehiclesResponse
	if err := c.AuthenticatedRequest(ctx, PathVehicles+filter.query(), token, Options{}, &resp); err != nil {
		return nil, fmt.Errorf("list vehicles request failed: %w", err)
	}
	return resp.Vehicles, nil
}

// GetVehicle возвращает автомобиль по ID
func (c *Client) GetVehicle(ctx context.Context, token, id string) (*api.Vehicle, error) {
	var vehicle api.Vehicle
	path := PathVehicles + "/" + url.PathEscape(id)
	if err := c.AuthenticatedRequest(ctx, path, token, Options{}, &vehicle); err != nil {
		return nil, fmt.Errorf("get vehicle request failed: %w", err)
	}
	return &vehicle, nil
}

// CreateReservation бронирует автомобиль
func (c *Client) CreateReservation(ctx context.Context, token string, req api.ReserveRequest) (*api.Reservation, error) {
	var reservation api.Reservation
	opts := Options{Method: http.MethodPost, Body: req}
	if err := c.AuthenticatedRequest(ctx, PathReservations, token, opts, &reservation); err != nil {
		return nil, fmt.Errorf("create reservation request failed: %w", err)
	}
	return &reservation, nil
}

// ListReservations возвращает бронирования текущего пользователя
func (c *Client) ListReservations(ctx context.Context, token string) ([]api.Reservation, error) {
	var resp api.ReservationsResponse
	if err := c.AuthenticatedRequest(ctx, PathReservations, token, Options{}, &resp); err != nil {
		return nil, fmt.Errorf("list reservations request failed: %w", err)
	}
	return resp.Reservations, nil
}

// CancelReservation отменяет бронирование
func (c *Client) CancelReservation(ctx context.Context, token, id string) error {
	path := PathReservations + "/" + url.PathEscape(id)
	if err := c.AuthenticatedRequest(ctx, path, token, Options{Method: http.MethodDelete}, nil); err != nil {
		return fmt.Errorf("cancel reservation request failed: %w", err)
	}
	return nil
}
