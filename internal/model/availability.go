package model

import "time"

// AvailabilityWindow is a derived, non-persisted description of the
// bookable span starting at a given time. It is computed fresh on every
// query and must never be cached authoritatively.
type AvailabilityWindow struct {
	ResourceID string        `json:"resource_id"`
	Date       time.Time     `json:"date"`
	Start      TimeOfDay     `json:"start"`
	End        TimeOfDay     `json:"end"`
	MinBooking time.Duration `json:"min_booking"`
	MaxBooking time.Duration `json:"max_booking"`
}

// SlotInfo describes one hour slot of a day for calendar rendering.
type SlotInfo struct {
	Start       TimeOfDay     `json:"start"`
	Available   bool          `json:"available"`
	MaxDuration time.Duration `json:"max_duration"`
}
