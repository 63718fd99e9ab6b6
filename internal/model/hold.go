package model

import "time"

// Hold is a client-local, time-boxed shadow of a pending reservation.
// It carries its own expiry, shorter or equal to the server's, so stale
// cart state is discarded even if a notification is delayed or dropped.
// A hold is never ground truth; the server reconciles it by event or
// re-query.
type Hold struct {
	ReservationID string        `json:"reservation_id"`
	ResourceID    string        `json:"resource_id"`
	Date          time.Time     `json:"date"`
	Start         TimeOfDay     `json:"start"`
	Duration      time.Duration `json:"duration"`
	ExpiresAt     time.Time     `json:"expires_at"`
}

// Expired reports whether the local expiry has passed.
func (h Hold) Expired(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}
