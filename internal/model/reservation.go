package model

import "time"

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// Terminal reports whether no further transitions leave the status.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationStatusConfirmed || s == ReservationStatusCancelled || s == ReservationStatusExpired
}

// Identity is who is acting on or holding a reservation: an authenticated
// user, a guest identified by verified phone number, or both. Managed
// studios grant cancellation rights over their resources.
type Identity struct {
	UserID         string   `json:"user_id,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	ManagedStudios []string `json:"managed_studios,omitempty"`
}

// Key returns a stable subscription key for the identity.
func (i Identity) Key() string {
	if i.UserID != "" {
		return i.UserID
	}
	return "phone:" + i.Phone
}

// ManagesStudio reports whether the identity manages the given studio.
func (i Identity) ManagesStudio(studioID string) bool {
	for _, id := range i.ManagedStudios {
		if id == studioID {
			return true
		}
	}
	return false
}

// Reservation is a booked (or attempted) interval on a resource. It is
// created and transitioned only by the reservation service.
type Reservation struct {
	ID           string            `json:"id"`
	ResourceID   string            `json:"resource_id"`
	Date         time.Time         `json:"date"` // midnight, date only
	Start        TimeOfDay         `json:"start"`
	Duration     time.Duration     `json:"duration"`
	Status       ReservationStatus `json:"status"`
	HolderUserID string            `json:"holder_user_id,omitempty"`
	HolderPhone  string            `json:"holder_phone,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`

	// ExpiresAt is set only while the reservation is pending.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// End returns the time of day the reservation ends.
func (r *Reservation) End() TimeOfDay {
	return r.Start.Add(r.Duration)
}

// HeldBy reports whether the identity is the reservation holder.
func (r *Reservation) HeldBy(id Identity) bool {
	if r.HolderUserID != "" && r.HolderUserID == id.UserID {
		return true
	}
	return r.HolderPhone != "" && r.HolderPhone == id.Phone
}

// Holder returns the holder as an identity.
func (r *Reservation) Holder() Identity {
	return Identity{UserID: r.HolderUserID, Phone: r.HolderPhone}
}

// OccupiedInterval returns the span the reservation blocks on the
// resource, including the preparation buffer on the configured sides.
// The start is clamped at midnight.
func (r *Reservation) OccupiedInterval(res *Resource) (TimeOfDay, TimeOfDay) {
	from := r.Start - TimeOfDay(res.BufferBeforeSpan()/time.Minute)
	if from < 0 {
		from = 0
	}
	return from, r.End().Add(res.BufferAfterSpan())
}

// ExpiredAt reports whether a pending reservation's hold has lapsed.
func (r *Reservation) ExpiredAt(now time.Time) bool {
	return r.Status == ReservationStatusPending && r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateOnly truncates a timestamp to midnight of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
