package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/booking_engine/internal/clock"
	"github.com/Freeeeeet/booking_engine/internal/model"
	"go.uber.org/zap"
)

// ResourceCatalog reads bookable resource definitions. The engine never
// mutates them.
type ResourceCatalog interface {
	GetResource(ctx context.Context, resourceID string) (*model.Resource, error)
}

// ReservationReader lists the non-terminal reservations occupying a
// resource on a date. Pending reservations whose hold has lapsed are
// excluded even before the reaper formalizes them.
type ReservationReader interface {
	ListActive(ctx context.Context, resourceID string, date time.Time, now time.Time) ([]*model.Reservation, error)
}

// AvailabilityService computes bookable windows and validates booking
// requests. It is read-only: conflict scans take the same per-key lock
// as writes, only long enough to read a consistent snapshot.
type AvailabilityService struct {
	catalog      ResourceCatalog
	reservations ReservationReader
	locks        *KeyLock
	clock        clock.Clock
	logger       *zap.Logger
}

func NewAvailabilityService(
	catalog ResourceCatalog,
	reservations ReservationReader,
	locks *KeyLock,
	clk clock.Clock,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		catalog:      catalog,
		reservations: reservations,
		locks:        locks,
		clock:        clk,
		logger:       logger,
	}
}

// MinimumDuration returns the resource's minimum bookable span.
func (s *AvailabilityService) MinimumDuration(ctx context.Context, resourceID string) (time.Duration, error) {
	resource, err := s.getResource(ctx, resourceID)
	if err != nil {
		return 0, err
	}
	return resource.MinimumDuration(), nil
}

// MaximumDuration returns the longest permissible duration for a booking
// starting at the given time of day.
func (s *AvailabilityService) MaximumDuration(ctx context.Context, resourceID string, date time.Time, start model.TimeOfDay) (time.Duration, error) {
	resource, err := s.getResource(ctx, resourceID)
	if err != nil {
		return 0, err
	}

	active, err := s.snapshot(ctx, resourceID, date)
	if err != nil {
		return 0, err
	}

	return maximumDuration(resource, date, start, active)
}

// ValidateRequest checks a booking request against the resource's
// constraints and current reservations, returning the specific reason
// on failure.
func (s *AvailabilityService) ValidateRequest(ctx context.Context, resourceID string, date time.Time, start model.TimeOfDay, duration time.Duration) error {
	resource, err := s.getResource(ctx, resourceID)
	if err != nil {
		return err
	}

	active, err := s.snapshot(ctx, resourceID, date)
	if err != nil {
		return err
	}

	return validateRequest(resource, date, start, duration, active, s.clock.Now())
}

// QueryAvailability computes the bookable window at the given start, or
// the earliest window of the day when start is nil.
func (s *AvailabilityService) QueryAvailability(ctx context.Context, resourceID string, date time.Time, start *model.TimeOfDay) (*model.AvailabilityWindow, error) {
	resource, err := s.getResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	active, err := s.snapshot(ctx, resourceID, date)
	if err != nil {
		return nil, err
	}

	if start != nil {
		return windowAt(resource, date, *start, active)
	}

	hours, ok := resource.HoursOn(date.Weekday())
	if !ok {
		return nil, model.ErrClosedDay
	}

	// Walk hour slots from opening and return the first start that
	// admits at least the minimum duration.
	for t := hours.Open; t < hours.Close; t = nextHourSlot(t) {
		w, err := windowAt(resource, date, t, active)
		if err == nil {
			return w, nil
		}
	}
	return nil, model.ErrNoWindow
}

// DaySlots reports per-hour availability for calendar rendering.
func (s *AvailabilityService) DaySlots(ctx context.Context, resourceID string, date time.Time) ([]model.SlotInfo, error) {
	resource, err := s.getResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	active, err := s.snapshot(ctx, resourceID, date)
	if err != nil {
		return nil, err
	}

	hours, ok := resource.HoursOn(date.Weekday())
	if !ok {
		return nil, model.ErrClosedDay
	}

	var slots []model.SlotInfo
	for t := hours.Open; t < hours.Close; t = nextHourSlot(t) {
		max, err := maximumDuration(resource, date, t, active)
		if err != nil {
			slots = append(slots, model.SlotInfo{Start: t})
			continue
		}
		slots = append(slots, model.SlotInfo{Start: t, Available: true, MaxDuration: max})
	}
	return slots, nil
}

func (s *AvailabilityService) getResource(ctx context.Context, resourceID string) (*model.Resource, error) {
	resource, err := s.catalog.GetResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, storageErr("get resource", err)
	}
	return resource, nil
}

// snapshot reads a point-in-time consistent view of the reservations
// for one (resource, date) key.
func (s *AvailabilityService) snapshot(ctx context.Context, resourceID string, date time.Time) ([]*model.Reservation, error) {
	key := slotKey(resourceID, date)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	active, err := s.reservations.ListActive(ctx, resourceID, date, s.clock.Now())
	if err != nil {
		return nil, storageErr("list reservations", err)
	}
	return active, nil
}

// maximumDuration is the core availability computation: the span from
// start to the next boundary (the earliest conflicting reservation, or
// closing time), less the trailing preparation buffer, capped by the
// resource's per-booking maximum. A reservation occupying the start,
// including one starting exactly at it, is a conflict rather than a
// zero-length window.
func maximumDuration(r *model.Resource, date time.Time, start model.TimeOfDay, active []*model.Reservation) (time.Duration, error) {
	hours, ok := r.HoursOn(date.Weekday())
	if !ok {
		return 0, model.ErrClosedDay
	}
	if start < hours.Open || start >= hours.Close {
		return 0, model.ErrOutsideOperatingHours
	}

	leadFrom := start - model.TimeOfDay(r.BufferBeforeSpan()/time.Minute)
	if leadFrom < 0 {
		leadFrom = 0
	}

	boundary := hours.Close
	for _, res := range active {
		from, to := res.OccupiedInterval(r)
		if from <= start && to > leadFrom {
			return 0, model.ErrSlotTaken
		}
		if from > start && from < boundary {
			boundary = from
		}
	}

	max := boundary.Sub(start) - r.BufferAfterSpan()
	if r.MaxHours > 0 {
		if limit := time.Duration(r.MaxHours) * time.Hour; max > limit {
			max = limit
		}
	}
	if max < r.MinimumDuration() {
		return 0, model.ErrNoWindow
	}
	return max, nil
}

// validateRequest applies the duration and lead-time invariants to a
// concrete booking request, then bounds it against the next boundary.
func validateRequest(r *model.Resource, date time.Time, start model.TimeOfDay, duration time.Duration, active []*model.Reservation, now time.Time) error {
	if err := validateStatic(r, date, start, duration, now); err != nil {
		return err
	}

	max, err := maximumDuration(r, date, start, active)
	if err != nil {
		if errors.Is(err, model.ErrNoWindow) {
			return model.ErrTooLong
		}
		return err
	}
	if duration > max {
		return model.ErrTooLong
	}
	return nil
}

func windowAt(r *model.Resource, date time.Time, start model.TimeOfDay, active []*model.Reservation) (*model.AvailabilityWindow, error) {
	max, err := maximumDuration(r, date, start, active)
	if err != nil {
		return nil, err
	}
	return &model.AvailabilityWindow{
		ResourceID: r.ID,
		Date:       date,
		Start:      start,
		End:        start.Add(max),
		MinBooking: r.MinimumDuration(),
		MaxBooking: max,
	}, nil
}

// nextHourSlot advances to the next full hour mark.
func nextHourSlot(t model.TimeOfDay) model.TimeOfDay {
	return (t/60 + 1) * 60
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStorageUnavailable, err)
}
