package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iudanet/autopark/internal/models"
	"github.com/iudanet/autopark/internal/server/storage"
	"github.com/iudanet/autopark/internal/validation"
	"github.com/iudanet/autopark/pkg/api"
)

// FleetHandler обслуживает /vehicles и /reservations
type FleetHandler struct {
	logger        *slog.Logger
	fleet         storage.FleetStorage
	notifications storage.NotificationStorage
	now           func() time.Time
}

// NewFleetHandler создает handler автопарка.
// notifications may be nil.
func NewFleetHandler(logger *slog.Logger, fleet storage.FleetStorage, notifications storage.NotificationStorage) *FleetHandler {
	return &FleetHandler{
		logger:        logger,
		fleet:         fleet,
		notifications: notifications,
		now:           time.Now,
	}
}

// ListVehicles обрабатывает GET /vehicles?account=&available=
func (h *FleetHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.VehicleFilter{AccountID: query.Get("account")}

	if raw := query.Get("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			SendError(w, h.logger, http.StatusBadRequest, api.CodeValidation, "available must be true or false")
			return
		}
		filter.Available = &available
	}

	vehicles, err := h.fleet.ListVehicles(r.Context(), filter)
	if err != nil {
		internalError(w, r, h.logger, "failed to list vehicles", err)
		return
	}

	resp := api.VehiclesResponse{Vehicles: make([]api.Vehicle, 0, len(vehicles))}
	for _, v := range vehicles {
		resp.Vehicles = append(resp.Vehicles, toAPIVehicle(v))
	}

	SendJSON(w, h.logger, resp, http.StatusOK)
}

// GetVehicle обрабатывает GET /vehicles/{id}
func (h *FleetHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.fleet.GetVehicle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, storage.ErrVehicleNotFound) {
			SendError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "vehicle not found")
			return
		}
		internalError(w, r, h.logger, "failed to get vehicle", err)
		return
	}

	SendJSON(w, h.logger, toAPIVehicle(vehicle), http.StatusOK)
}

// CreateReservation обрабатывает POST /reservations
func (h *FleetHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		SendError(w, h.logger, http.StatusUnauthorized, api.CodeUnauthorized, "unauthorized")
		return
	}

	var req api.ReserveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode reservation request", slog.Any("error", err))
		SendError(w, h.logger, http.StatusBadRequest, api.CodeValidation, "invalid request body")
		return
	}
	if req.VehicleID == "" {
		SendError(w, h.logger, http.StatusBadRequest, api.CodeValidation, "vehicle id is required")
		return
	}
	if err := validation.ValidateDateRange(req.StartDate, req.EndDate); err != nil {
		SendError(w, h.logger, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	reservation := &models.Reservation{
		ID:        uuid.New().String(),
		VehicleID: req.VehicleID,
		UserID:    userID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    models.ReservationActive,
		CreatedAt: h.now(),
	}

	if err := h.fleet.CreateReservation(ctx, reservation); err != nil {
		switch {
		case errors.Is(err, storage.ErrVehicleNotFound):
			SendError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "vehicle not found")
		case errors.Is(err, storage.ErrVehicleUnavailable):
			SendError(w, h.logger, http.StatusConflict, api.CodeVehicleUnavailable, err.Error())
		default:
			internalError(w, r, h.logger, "failed to create reservation", err)
		}
		return
	}

	h.notifyReserved(ctx, reservation)

	h.logger.InfoContext(ctx, "reservation created",
		slog.String("user_id", userID),
		slog.String("vehicle_id", reservation.VehicleID),
		slog.String("reservation_id", reservation.ID))

	SendJSON(w, h.logger, toAPIReservation(reservation), http.StatusCreated)
}

// notifyReserved создает уведомление о подтвержденной брони, ошибки только логируются
func (h *FleetHandler) notifyReserved(ctx context.Context, r *models.Reservation) {
	if h.notifications == nil {
		return
	}

	name := r.VehicleID
	if vehicle, err := h.fleet.GetVehicle(ctx, r.VehicleID); err == nil {
		name = vehicle.Brand + " " + vehicle.Model
	}

	n := &models.Notification{
		ID:     uuid.New().String(),
		UserID: r.UserID,
		Title:  "Réservation confirmée",
		Body: fmt.Sprintf("%s du %s au %s", name,
			r.StartDate.Format(time.DateOnly), r.EndDate.Format(time.DateOnly)),
		CreatedAt: r.CreatedAt,
	}
	if err := h.notifications.CreateNotification(ctx, n); err != nil {
		h.logger.WarnContext(ctx, "failed to create reservation notification", slog.Any("error", err))
	}
}

// ListReservations обрабатывает GET /reservations
func (h *FleetHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		SendError(w, h.logger, http.StatusUnauthorized, api.CodeUnauthorized, "unauthorized")
		return
	}

	list, err := h.fleet.ListReservations(r.Context(), userID)
	if err != nil {
		internalError(w, r, h.logger, "failed to list reservations", err)
		return
	}

	resp := api.ReservationsResponse{Reservations: make([]api.Reservation, 0, len(list))}
	for _, res := range list {
		resp.Reservations = append(resp.Reservations, toAPIReservation(res))
	}

	SendJSON(w, h.logger, resp, http.StatusOK)
}

// CancelReservation обрабатывает DELETE /reservations/{id}
func (h *FleetHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		SendError(w, h.logger, http.StatusUnauthorized, api.CodeUnauthorized, "unauthorized")
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.fleet.CancelReservation(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrReservationNotFound) {
			SendError(w, h.logger, http.StatusNotFound, api.CodeNotFound, "reservation not found")
			return
		}
		internalError(w, r, h.logger, "failed to cancel reservation", err)
		return
	}

	h.logger.InfoContext(ctx, "reservation cancelled",
		slog.String("user_id", userID),
		slog.String("reservation_id", id))

	w.WriteHeader(http.StatusNoContent)
}

func toAPIVehicle(v *models.Vehicle) api.Vehicle {
	return api.Vehicle{
		ID:          v.ID,
		AccountID:   v.AccountID,
		AccountName: v.AccountName,
		Brand:       v.Brand,
		Model:       v.Model,
		Year:        v.Year,
		Plate:       v.Plate,
		PricePerDay: v.PricePerDay,
		Available:   v.Available,
		Location:    v.Location,
	}
}

func toAPIReservation(r *models.Reservation) api.Reservation {
	return api.Reservation{
		ID:        r.ID,
		VehicleID: r.VehicleID,
		UserID:    r.UserID,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}
