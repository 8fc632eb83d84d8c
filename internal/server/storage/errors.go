package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this email already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTokenNotFound indicates that refresh token was not found
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrNotificationNotFound indicates that notification was not found for the user
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrVehicleNotFound indicates that vehicle was not found
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrReservationNotFound indicates that reservation was not found for the user
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrVehicleUnavailable indicates that the vehicle is not rented out or already booked for the period
	ErrVehicleUnavailable = errors.New("vehicle is not available for these dates")
)
