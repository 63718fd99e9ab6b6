// Package notify fans change events out to interested observers.
// Delivery is at-most-once and best-effort: subscribers that miss an
// event recover by re-querying availability, so nothing here is a
// source of truth.
package notify

import (
	"context"

	"github.com/Freeeeeet/booking_engine/internal/model"
)

type Notifier interface {
	Publish(ctx context.Context, event model.Event) error
}

// Multi publishes to several notifiers, typically the in-process hub
// plus the redis fan-out. The first error is returned after all
// notifiers were attempted.
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, event model.Event) error {
	var first error
	for _, n := range m {
		if err := n.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
