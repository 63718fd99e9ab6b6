package model

import "time"

type DurationUnit string

const (
	UnitMinutes DurationUnit = "minutes"
	UnitHours   DurationUnit = "hours"
	UnitDays    DurationUnit = "days"
)

// ResourceDuration is a duration the way resource owners enter it:
// a value plus a unit. Unknown units default to hours.
type ResourceDuration struct {
	Value int          `json:"value"`
	Unit  DurationUnit `json:"unit"`
}

// Normalize converts the duration to a time.Duration.
func (d ResourceDuration) Normalize() time.Duration {
	switch d.Unit {
	case UnitMinutes:
		return time.Duration(d.Value) * time.Minute
	case UnitHours:
		return time.Duration(d.Value) * time.Hour
	case UnitDays:
		return time.Duration(d.Value) * 24 * time.Hour
	default:
		return time.Duration(d.Value) * time.Hour
	}
}
