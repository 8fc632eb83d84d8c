package storage

import (
	"context"

	"github.com/iudanet/autopark/internal/models"
)

// FleetStorage defines interface for vehicles and reservations
type FleetStorage interface {
	// ListVehicles returns vehicles of all accounts matching filter
	ListVehicles(ctx context.Context, filter models.VehicleFilter) ([]*models.Vehicle, error)

	// GetVehicle retrieves vehicle by ID
	// Returns ErrVehicleNotFound if vehicle doesn't exist
	GetVehicle(ctx context.Context, id string) (*models.Vehicle, error)

	// CreateReservation stores a reservation if the vehicle is free for the period
	// Returns ErrVehicleNotFound or ErrVehicleUnavailable
	CreateReservation(ctx context.Context, r *models.Reservation) error

	// ListReservations returns the user's reservations, newest first
	ListReservations(ctx context.Context, userID string) ([]*models.Reservation, error)

	// CancelReservation sets status to cancelled
	// Returns ErrReservationNotFound if it doesn't exist, belongs to another user or is already cancelled
	CancelReservation(ctx context.Context, userID, id string) error
}
