package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/autopark/internal/models"
	"github.com/iudanet/autopark/internal/server/storage"
)

const vehicleQuery = `
	SELECT v.id, v.account_id, a.name, v.brand, v.model, v.year, v.plate, v.price_per_day, v.location, v.available
	FROM vehicles v
	JOIN accounts a ON a.id = v.account_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*models.Vehicle, error) {
	v := &models.Vehicle{}
	err := row.Scan(
		&v.ID,
		&v.AccountID,
		&v.AccountName,
		&v.Brand,
		&v.Model,
		&v.Year,
		&v.Plate,
		&v.PricePerDay,
		&v.Location,
		&v.Available,
	)
	return v, err
}

// ListVehicles returns vehicles of all accounts matching filter
func (s *Storage) ListVehicles(ctx context.Context, filter models.VehicleFilter) ([]*models.Vehicle, error) {
	var (
		where []string
		args  []any
	)
	if filter.AccountID != "" {
		where = append(where, "v.account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.Available != nil {
		where = append(where, "v.available = ?")
		args = append(args, *filter.Available)
	}

	query := vehicleQuery
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.name, v.brand, v.model, v.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	vehicles := make([]*models.Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return vehicles, nil
}

// GetVehicle retrieves vehicle by ID
func (s *Storage) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	v, err := scanVehicle(s.db.QueryRowContext(ctx, vehicleQuery+" WHERE v.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return v, nil
}

// CreateReservation проверяет доступность автомобиля и сохраняет бронирование в одной транзакции
func (s *Storage) CreateReservation(ctx context.Context, r *models.Reservation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var available bool
	err = tx.QueryRowContext(ctx, `SELECT available FROM vehicles WHERE id = ?`, r.VehicleID).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrVehicleNotFound
		}
		return fmt.Errorf("failed to get vehicle: %w", err)
	}
	if !available {
		return storage.ErrVehicleUnavailable
	}

	active, err := queryReservations(ctx, tx,
		`WHERE vehicle_id = ? AND status = ?`, r.VehicleID, models.ReservationActive)
	if err != nil {
		return err
	}
	for _, existing := range active {
		if existing.Overlaps(r.StartDate, r.EndDate) {
			return storage.ErrVehicleUnavailable
		}
	}

	if r.Status == "" {
		r.Status = models.ReservationActive
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO reservations (id, vehicle_id, user_id, start_date, end_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.VehicleID,
		r.UserID,
		r.StartDate.UTC(),
		r.EndDate.UTC(),
		r.Status,
		r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListReservations returns the user's reservations, newest first
func (s *Storage) ListReservations(ctx context.Context, userID string) ([]*models.Reservation, error) {
	return queryReservations(ctx, s.db, `WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
}

// CancelReservation sets status to cancelled
func (s *Storage) CancelReservation(ctx context.Context, userID, id string) error {
	query := `UPDATE reservations SET status = ? WHERE id = ? AND user_id = ? AND status = ?`

	result, err := s.db.ExecContext(ctx, query, models.ReservationCancelled, id, userID, models.ReservationActive)
	if err != nil {
		return fmt.Errorf("failed to cancel reservation: %w", err)
	}

	return expectRows(result, storage.ErrReservationNotFound)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryReservations(ctx context.Context, q querier, clause string, args ...any) ([]*models.Reservation, error) {
	query := `
		SELECT id, vehicle_id, user_id, start_date, end_date, status, created_at
		FROM reservations
	` + clause

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	reservations := make([]*models.Reservation, 0)
	for rows.Next() {
		r := &models.Reservation{}
		if err := rows.Scan(&r.ID, &r.VehicleID, &r.UserID, &r.StartDate, &r.EndDate, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return reservations, nil
}
