// Package http is the caller boundary of the engine: thin JSON handlers
// over the availability and reservation services. It holds no
// scheduling logic of its own.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Freeeeeet/booking_engine/internal/model"
	"github.com/Freeeeeet/booking_engine/internal/service"
	"go.uber.org/zap"
)

// AvailabilityQuerier is the read side of the engine.
type AvailabilityQuerier interface {
	QueryAvailability(ctx context.Context, resourceID string, date time.Time, start *model.TimeOfDay) (*model.AvailabilityWindow, error)
	DaySlots(ctx context.Context, resourceID string, date time.Time) ([]model.SlotInfo, error)
}

// Coordinator is the write side of the engine.
type Coordinator interface {
	Book(ctx context.Context, req service.BookRequest) (*model.Reservation, error)
	Confirm(ctx context.Context, reservationID string) (*model.Reservation, error)
	Cancel(ctx context.Context, reservationID string, requester model.Identity) error
	ListByHolder(ctx context.Context, holder model.Identity) ([]*model.Reservation, error)
}

type Handler struct {
	availability AvailabilityQuerier
	coordinator  Coordinator
	logger       *zap.Logger
}

// NewRouter wires the engine's HTTP surface.
func NewRouter(availability AvailabilityQuerier, coordinator Coordinator, logger *zap.Logger) http.Handler {
	h := &Handler{availability: availability, coordinator: coordinator, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /availability", h.queryAvailability)
	mux.HandleFunc("GET /availability/slots", h.daySlots)
	mux.HandleFunc("POST /reservations", h.book)
	mux.HandleFunc("POST /reservations/{id}/confirm", h.confirm)
	mux.HandleFunc("POST /reservations/{id}/cancel", h.cancel)
	mux.HandleFunc("GET /reservations", h.listByHolder)
	return mux
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) queryAvailability(w http.ResponseWriter, r *http.Request) {
	resourceID := r.URL.Query().Get("resource_id")
	if resourceID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "resource_id is required")
		return
	}

	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidDate, "date must be YYYY-MM-DD")
		return
	}

	var start *model.TimeOfDay
	if raw := r.URL.Query().Get("start"); raw != "" {
		t, err := model.ParseTimeOfDay(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidStart, "start must be HH:MM")
			return
		}
		start = &t
	}

	window, err := h.availability.QueryAvailability(r.Context(), resourceID, date, start)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWindowResponse(window))
}

func (h *Handler) daySlots(w http.ResponseWriter, r *http.Request) {
	resourceID := r.URL.Query().Get("resource_id")
	if resourceID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "resource_id is required")
		return
	}

	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidDate, "date must be YYYY-MM-DD")
		return
	}

	slots, err := h.availability.DaySlots(r.Context(), resourceID, date)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotResponses(slots))
}

type bookPayload struct {
	ResourceID      string          `json:"resource_id"`
	Date            string          `json:"date"`
	Start           string          `json:"start"`
	DurationMinutes int             `json:"duration_minutes"`
	Holder          identityPayload `json:"holder"`
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	var payload bookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if payload.ResourceID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "resource_id is required")
		return
	}

	date, err := time.Parse(dateLayout, payload.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidDate, "date must be YYYY-MM-DD")
		return
	}
	start, err := model.ParseTimeOfDay(payload.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidStart, "start must be HH:MM")
		return
	}
	if payload.DurationMinutes <= 0 {
		writeError(w, http.StatusBadRequest, codeInvalidDuration, "duration_minutes must be positive")
		return
	}

	reservation, err := h.coordinator.Book(r.Context(), service.BookRequest{
		ResourceID: payload.ResourceID,
		Date:       date,
		Start:      start,
		Duration:   time.Duration(payload.DurationMinutes) * time.Minute,
		Holder:     payload.Holder.toIdentity(),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationResponse(reservation))
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.coordinator.Confirm(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(reservation))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	var requester identityPayload
	if err := json.NewDecoder(r.Body).Decode(&requester); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	if err := h.coordinator.Cancel(r.Context(), r.PathValue("id"), requester.toIdentity()); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handler) listByHolder(w http.ResponseWriter, r *http.Request) {
	holder := model.Identity{
		UserID: r.URL.Query().Get("user_id"),
		Phone:  r.URL.Query().Get("phone"),
	}
	if holder.UserID == "" && holder.Phone == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "user_id or phone is required")
		return
	}

	reservations, err := h.coordinator.ListByHolder(r.Context(), holder)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	out := make([]reservationResponse, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationResponse(reservation))
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
