package api

import "time"

// Vehicle представляет автомобиль, доступный на площадке (parking/dealer account)
type Vehicle struct {
	ID          string  `json:"id"`
	AccountID   string  `json:"accountId"`
	AccountName string  `json:"accountName"`
	Brand       string  `json:"brand"`
	Model       string  `json:"model"`
	Year        int     `json:"year"`
	Plate       string  `json:"plate"`
	PricePerDay float64 `json:"pricePerDay"`
	Available   bool    `json:"available"`
	Location    string  `json:"location,omitempty"`
}

// VehiclesResponse is the body of GET /vehicles.
type VehiclesResponse struct {
	Vehicles []Vehicle `json:"vehicles"`
}

// Reservation statuses.
const (
	ReservationActive    = "active"
	ReservationCancelled = "cancelled"
)

// Reservation представляет бронирование автомобиля пользователем
type Reservation struct {
	ID        string    `json:"id"`
	VehicleID string    `json:"vehicleId"`
	UserID    string    `json:"userId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReserveRequest is the body of POST /reservations.
type ReserveRequest struct {
	VehicleID string    `json:"vehicleId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// ReservationsResponse is the body of GET /reservations.
type ReservationsResponse struct {
	Reservations []Reservation `json:"reservations"`
}
