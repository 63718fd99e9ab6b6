package service

import (
	"sync"
	"time"

	"github.com/Freeeeeet/booking_engine/internal/clock"
	"github.com/Freeeeeet/booking_engine/internal/model"
)

const defaultLocalHoldTTL = 10 * time.Minute

// HoldCache tracks a client's local holds: ephemeral shadows of pending
// reservations with their own, shorter-or-equal expiry. A hold is
// discarded when its local TTL passes or when a reservation event
// arrives for it, regardless of server state — the server is
// reconciled by re-query, never by trusting the cache.
type HoldCache struct {
	mu    sync.Mutex
	holds map[string]model.Hold
	clock clock.Clock
	ttl   time.Duration
}

func NewHoldCache(clk clock.Clock, localTTL time.Duration) *HoldCache {
	if localTTL <= 0 {
		localTTL = defaultLocalHoldTTL
	}
	return &HoldCache{
		holds: make(map[string]model.Hold),
		clock: clk,
		ttl:   localTTL,
	}
}

// Track shadows a pending reservation. Non-pending reservations clear
// any existing shadow instead.
func (c *HoldCache) Track(reservation *model.Reservation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if reservation.Status != model.ReservationStatusPending || reservation.ExpiresAt == nil {
		delete(c.holds, reservation.ID)
		return
	}

	expiresAt := c.clock.Now().Add(c.ttl)
	if reservation.ExpiresAt.Before(expiresAt) {
		expiresAt = *reservation.ExpiresAt
	}

	c.holds[reservation.ID] = model.Hold{
		ReservationID: reservation.ID,
		ResourceID:    reservation.ResourceID,
		Date:          reservation.Date,
		Start:         reservation.Start,
		Duration:      reservation.Duration,
		ExpiresAt:     expiresAt,
	}
}

// Get returns a live hold. Lapsed holds are dropped on access.
func (c *HoldCache) Get(reservationID string) (model.Hold, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hold, ok := c.holds[reservationID]
	if !ok {
		return model.Hold{}, false
	}
	if hold.Expired(c.clock.Now()) {
		delete(c.holds, reservationID)
		return model.Hold{}, false
	}
	return hold, true
}

// Live returns all holds that have not lapsed, pruning the rest.
func (c *HoldCache) Live() []model.Hold {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	var live []model.Hold
	for id, hold := range c.holds {
		if hold.Expired(now) {
			delete(c.holds, id)
			continue
		}
		live = append(live, hold)
	}
	return live
}

// Apply reconciles the cache against a change event: any reservation
// update for a tracked hold invalidates it, forcing the next view to
// re-query the server.
func (c *HoldCache) Apply(event model.Event) {
	if event.Kind != model.ChangeReservation || event.ReservationID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.holds, event.ReservationID)
}
