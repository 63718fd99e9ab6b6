package model

import "time"

type ChangeKind string

const (
	ChangeAvailability ChangeKind = "availability-changed"
	ChangeReservation  ChangeKind = "reservation-updated"
)

// Event is the envelope broadcast whenever a resource's availability or
// a specific reservation changes. Delivery is at-most-once: subscribers
// treat events as invalidation signals and re-query, never as deltas.
type Event struct {
	ResourceID    string     `json:"resource_id"`
	Kind          ChangeKind `json:"kind"`
	ReservationID string     `json:"reservation_id,omitempty"`
	HolderKey     string     `json:"holder_key,omitempty"`
	AffectedDate  time.Time  `json:"affected_date"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Topics lists the channels the event fans out to: every watcher of the
// resource, plus the holder's own channel for reservation updates so a
// holder's cart view is corrected even when they are not watching.
func (e Event) Topics() []string {
	topics := []string{ResourceTopic(e.ResourceID)}
	if e.Kind == ChangeReservation && e.HolderKey != "" {
		topics = append(topics, HolderTopic(e.HolderKey))
	}
	return topics
}

func ResourceTopic(resourceID string) string { return "resource:" + resourceID }

func HolderTopic(holderKey string) string { return "holder:" + holderKey }
