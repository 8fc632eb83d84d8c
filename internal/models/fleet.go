package models

import "time"

// Account площадка (парковка или дилер), которой принадлежат автомобили
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// Vehicle автомобиль площадки
type Vehicle struct {
	ID          string  `json:"id"`
	AccountID   string  `json:"account_id"`
	AccountName string  `json:"account_name"` // из таблицы accounts
	Brand       string  `json:"brand"`
	Model       string  `json:"model"`
	Plate       string  `json:"plate"`
	Location    string  `json:"location"`
	PricePerDay float64 `json:"price_per_day"`
	Year        int     `json:"year"`
	Available   bool    `json:"available"` // площадка сдает автомобиль
}

// VehicleFilter narrows ListVehicles. Zero values match everything.
type VehicleFilter struct {
	Available *bool
	AccountID string
}

// Reservation statuses
const (
	ReservationActive    = "active"
	ReservationCancelled = "cancelled"
)

// Reservation бронирование автомобиля на период [StartDate, EndDate)
type Reservation struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	VehicleID string    `json:"vehicle_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
}

// Overlaps reports whether the reservation intersects [start, end).
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartDate.Before(end) && start.Before(r.EndDate)
}
