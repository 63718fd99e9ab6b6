package model

import "time"

// BufferPlacement controls which side of a reservation the preparation
// buffer blocks. Studio owners rarely change this from the default.
type BufferPlacement string

const (
	BufferAfter  BufferPlacement = "after"
	BufferBefore BufferPlacement = "before"
	BufferBoth   BufferPlacement = "both"
)

// DayHours is the open interval of a single operating day.
type DayHours struct {
	Open  TimeOfDay `json:"open"`
	Close TimeOfDay `json:"close"`
}

// Resource is a bookable unit of studio inventory. Definitions are owned
// by the catalog's management flow; the engine only reads them.
type Resource struct {
	ID       string `json:"id"`
	StudioID string `json:"studio_id"`

	// Hours is the weekly operating calendar. A missing weekday means
	// the resource is closed that day.
	Hours map[time.Weekday]DayHours `json:"hours"`

	// MinDuration is the shortest bookable span. Zero means the
	// default of one hour.
	MinDuration time.Duration `json:"min_duration"`

	// MaxHours caps a single booking, zero means uncapped.
	MaxHours int `json:"max_hours"`

	// AdvanceNotice is the minimum lead time between submission and
	// the reservation start.
	AdvanceNotice time.Duration `json:"advance_notice"`

	// PrepBuffer is idle time blocked around each reservation.
	PrepBuffer      time.Duration   `json:"prep_buffer"`
	BufferPlacement BufferPlacement `json:"buffer_placement"`
}

const DefaultMinDuration = time.Hour

// MinimumDuration returns the minimum bookable span, never zero.
func (r *Resource) MinimumDuration() time.Duration {
	if r.MinDuration <= 0 {
		return DefaultMinDuration
	}
	return r.MinDuration
}

// HoursOn returns the operating hours for a weekday, false when closed.
func (r *Resource) HoursOn(day time.Weekday) (DayHours, bool) {
	h, ok := r.Hours[day]
	return h, ok
}

// BufferBefore reports the buffer blocked before a reservation's start.
func (r *Resource) BufferBeforeSpan() time.Duration {
	if r.BufferPlacement == BufferBefore || r.BufferPlacement == BufferBoth {
		return r.PrepBuffer
	}
	return 0
}

// BufferAfterSpan reports the buffer blocked after a reservation's end.
// The default placement blocks only this side.
func (r *Resource) BufferAfterSpan() time.Duration {
	if r.BufferPlacement == BufferBefore {
		return 0
	}
	return r.PrepBuffer
}
