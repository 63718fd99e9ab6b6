package http

import (
	"time"

	"github.com/Freeeeeet/booking_engine/internal/model"
)

const dateLayout = "2006-01-02"

type reservationResponse struct {
	ID              string `json:"id"`
	ResourceID      string `json:"resource_id"`
	Date            string `json:"date"`
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	ExpiresAt       string `json:"expires_at,omitempty"`
}

func toReservationResponse(r *model.Reservation) reservationResponse {
	resp := reservationResponse{
		ID:              r.ID,
		ResourceID:      r.ResourceID,
		Date:            r.Date.Format(dateLayout),
		Start:           r.Start.String(),
		DurationMinutes: int(r.Duration / time.Minute),
		Status:          string(r.Status),
	}
	if r.ExpiresAt != nil {
		resp.ExpiresAt = r.ExpiresAt.Format(time.RFC3339)
	}
	return resp
}

type windowResponse struct {
	ResourceID string `json:"resource_id"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
	MinMinutes int    `json:"min_minutes"`
	MaxMinutes int    `json:"max_minutes"`
}

func toWindowResponse(w *model.AvailabilityWindow) windowResponse {
	return windowResponse{
		ResourceID: w.ResourceID,
		Date:       w.Date.Format(dateLayout),
		Start:      w.Start.String(),
		End:        w.End.String(),
		MinMinutes: int(w.MinBooking / time.Minute),
		MaxMinutes: int(w.MaxBooking / time.Minute),
	}
}

type slotResponse struct {
	Start      string `json:"start"`
	Available  bool   `json:"available"`
	MaxMinutes int    `json:"max_minutes"`
}

func toSlotResponses(slots []model.SlotInfo) []slotResponse {
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotResponse{
			Start:      s.Start.String(),
			Available:  s.Available,
			MaxMinutes: int(s.MaxDuration / time.Minute),
		})
	}
	return out
}

type identityPayload struct {
	UserID         string   `json:"user_id"`
	Phone          string   `json:"phone"`
	ManagedStudios []string `json:"managed_studios"`
}

func (p identityPayload) toIdentity() model.Identity {
	return model.Identity{
		UserID:         p.UserID,
		Phone:          p.Phone,
		ManagedStudios: p.ManagedStudios,
	}
}
