package service

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/booking_engine/internal/clock"
	"github.com/Freeeeeet/booking_engine/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationStore is the authoritative record of reservations. Status
// transitions are conditional: Transition applies only when the current
// status matches, so concurrent confirm/cancel/expire cannot clobber
// each other.
type ReservationStore interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	ListActive(ctx context.Context, resourceID string, date time.Time, now time.Time) ([]*model.Reservation, error)
	ListByHolder(ctx context.Context, holder model.Identity) ([]*model.Reservation, error)
	ListExpiredPending(ctx context.Context, now time.Time) ([]*model.Reservation, error)
	Transition(ctx context.Context, id string, from, to model.ReservationStatus) (bool, error)
}

// Notifier broadcasts change events to interested observers. Delivery
// is best-effort; a publish failure never fails the state change.
type Notifier interface {
	Publish(ctx context.Context, event model.Event) error
}

const defaultHoldTTL = 15 * time.Minute

// ReservationService is the only writer of reservation state. All
// book/confirm/cancel/expire operations are serialized per
// (resourceID, date) key so the overlap check and the creation step
// form a single atomic unit.
type ReservationService struct {
	store       ReservationStore
	catalog     ResourceCatalog
	notifier    Notifier
	locks       *KeyLock
	clock       clock.Clock
	logger      *zap.Logger
	holdTTL     time.Duration
	autoConfirm bool
}

type ReservationServiceOption func(*ReservationService)

// WithHoldTTL overrides the hold window granted to pending reservations.
func WithHoldTTL(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

// WithAutoConfirm makes Book confirm immediately, for deployments with
// no payment gating.
func WithAutoConfirm(on bool) ReservationServiceOption {
	return func(s *ReservationService) {
		s.autoConfirm = on
	}
}

func NewReservationService(
	store ReservationStore,
	catalog ResourceCatalog,
	notifier Notifier,
	locks *KeyLock,
	clk clock.Clock,
	logger *zap.Logger,
	opts ...ReservationServiceOption,
) *ReservationService {
	svc := &ReservationService{
		store:    store,
		catalog:  catalog,
		notifier: notifier,
		locks:    locks,
		clock:    clk,
		logger:   logger,
		holdTTL:  defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type BookRequest struct {
	ResourceID string
	Date       time.Time
	Start      model.TimeOfDay
	Duration   time.Duration
	Holder     model.Identity
}

// Book validates the request and creates a pending reservation holding
// the slot until confirmed or expired. On conflict it fails with
// ErrSlotTaken and never retries: the caller must re-query availability
// and resubmit.
func (s *ReservationService) Book(ctx context.Context, req BookRequest) (*model.Reservation, error) {
	resource, err := s.getResource(ctx, req.ResourceID)
	if err != nil {
		return nil, err
	}

	date := model.DateOnly(req.Date)
	key := slotKey(req.ResourceID, date)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	now := s.clock.Now()
	active, err := s.store.ListActive(ctx, req.ResourceID, date, now)
	if err != nil {
		return nil, storageErr("list reservations", err)
	}

	if err := validateStatic(resource, date, req.Start, req.Duration, now); err != nil {
		return nil, err
	}
	if conflicts(resource, req.Start, req.Duration, active) {
		return nil, model.ErrSlotTaken
	}

	expiresAt := now.Add(s.holdTTL)
	reservation := &model.Reservation{
		ID:           uuid.NewString(),
		ResourceID:   req.ResourceID,
		Date:         date,
		Start:        req.Start,
		Duration:     req.Duration,
		Status:       model.ReservationStatusPending,
		HolderUserID: req.Holder.UserID,
		HolderPhone:  req.Holder.Phone,
		CreatedAt:    now,
		ExpiresAt:    &expiresAt,
	}

	if err := s.store.Create(ctx, reservation); err != nil {
		return nil, storageErr("create reservation", err)
	}

	if s.autoConfirm {
		ok, err := s.store.Transition(ctx, reservation.ID, model.ReservationStatusPending, model.ReservationStatusConfirmed)
		if err != nil {
			return nil, storageErr("confirm reservation", err)
		}
		if ok {
			reservation.Status = model.ReservationStatusConfirmed
			reservation.ExpiresAt = nil
		}
	}

	s.logger.Info("Reservation booked",
		zap.String("reservation_id", reservation.ID),
		zap.String("resource_id", reservation.ResourceID),
		zap.String("date", date.Format("2006-01-02")),
		zap.String("start", reservation.Start.String()),
		zap.Duration("duration", reservation.Duration),
		zap.String("status", string(reservation.Status)),
	)

	s.publishChange(ctx, reservation)
	return reservation, nil
}

// Confirm transitions a pending reservation to confirmed. A lapsed or
// otherwise non-pending reservation fails with ErrNotPending; the
// caller surfaces it as "slot no longer available".
func (s *ReservationService) Confirm(ctx context.Context, reservationID string) (*model.Reservation, error) {
	reservation, err := s.getReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	key := slotKey(reservation.ResourceID, reservation.Date)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	now := s.clock.Now()
	if reservation.ExpiredAt(now) {
		// The reaper has not swept this hold yet; formalize the
		// expiry rather than confirm a lapsed slot.
		s.expire(ctx, reservation)
		return nil, model.ErrNotPending
	}

	ok, err := s.store.Transition(ctx, reservationID, model.ReservationStatusPending, model.ReservationStatusConfirmed)
	if err != nil {
		return nil, storageErr("confirm reservation", err)
	}
	if !ok {
		return nil, model.ErrNotPending
	}

	reservation.Status = model.ReservationStatusConfirmed
	reservation.ExpiresAt = nil

	s.logger.Info("Reservation confirmed",
		zap.String("reservation_id", reservation.ID),
		zap.String("resource_id", reservation.ResourceID),
	)

	s.publishChange(ctx, reservation)
	return reservation, nil
}

// Cancel transitions a pending or confirmed reservation to cancelled
// and releases its interval. Allowed for the holder or a manager of the
// owning studio, and only while the reservation's date has not passed.
func (s *ReservationService) Cancel(ctx context.Context, reservationID string, requester model.Identity) error {
	reservation, err := s.getReservation(ctx, reservationID)
	if err != nil {
		return err
	}

	resource, err := s.getResource(ctx, reservation.ResourceID)
	if err != nil {
		return err
	}

	if !reservation.HeldBy(requester) && !requester.ManagesStudio(resource.StudioID) {
		return model.ErrForbidden
	}

	key := slotKey(reservation.ResourceID, reservation.Date)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	now := s.clock.Now()
	if reservation.Date.Before(model.DateOnly(now)) {
		return model.ErrNotCancellable
	}
	if reservation.ExpiredAt(now) {
		s.expire(ctx, reservation)
		return model.ErrNotCancellable
	}
	if reservation.Status.Terminal() && reservation.Status != model.ReservationStatusConfirmed {
		return model.ErrNotCancellable
	}

	ok, err := s.store.Transition(ctx, reservationID, reservation.Status, model.ReservationStatusCancelled)
	if err != nil {
		return storageErr("cancel reservation", err)
	}
	if !ok {
		return model.ErrNotCancellable
	}

	reservation.Status = model.ReservationStatusCancelled
	reservation.ExpiresAt = nil

	s.logger.Info("Reservation cancelled",
		zap.String("reservation_id", reservation.ID),
		zap.String("resource_id", reservation.ResourceID),
		zap.String("requester", requester.Key()),
	)

	s.publishChange(ctx, reservation)
	return nil
}

// Sweep transitions every pending reservation whose hold lapsed at or
// before now to expired and releases its slot. Safe to run concurrently
// with itself and with confirm/cancel: the conditional transition only
// applies while the reservation is still pending.
func (s *ReservationService) Sweep(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.ListExpiredPending(ctx, now)
	if err != nil {
		return 0, storageErr("list expired holds", err)
	}

	swept := 0
	for _, reservation := range due {
		key := slotKey(reservation.ResourceID, reservation.Date)
		s.locks.Lock(key)
		if s.expire(ctx, reservation) {
			swept++
		}
		s.locks.Unlock(key)
	}
	return swept, nil
}

// GetReservation returns a reservation by id.
func (s *ReservationService) GetReservation(ctx context.Context, reservationID string) (*model.Reservation, error) {
	return s.getReservation(ctx, reservationID)
}

// ListByHolder returns the holder's reservations for "my bookings" and
// hold reconciliation views.
func (s *ReservationService) ListByHolder(ctx context.Context, holder model.Identity) ([]*model.Reservation, error) {
	reservations, err := s.store.ListByHolder(ctx, holder)
	if err != nil {
		return nil, storageErr("list by holder", err)
	}
	return reservations, nil
}

// expire applies pending→expired. Returns false when the reservation
// was concurrently confirmed, cancelled, or already swept.
func (s *ReservationService) expire(ctx context.Context, reservation *model.Reservation) bool {
	ok, err := s.store.Transition(ctx, reservation.ID, model.ReservationStatusPending, model.ReservationStatusExpired)
	if err != nil {
		s.logger.Error("Failed to expire hold",
			zap.String("reservation_id", reservation.ID),
			zap.Error(err),
		)
		return false
	}
	if !ok {
		return false
	}

	reservation.Status = model.ReservationStatusExpired
	reservation.ExpiresAt = nil

	s.logger.Info("Hold expired",
		zap.String("reservation_id", reservation.ID),
		zap.String("resource_id", reservation.ResourceID),
	)

	s.publishChange(ctx, reservation)
	return true
}

// publishChange broadcasts the availability change for the slot and the
// reservation update for the holder. Failures are logged, never
// surfaced: events are an optimization, re-query is the source of truth.
func (s *ReservationService) publishChange(ctx context.Context, reservation *model.Reservation) {
	now := s.clock.Now()
	events := []model.Event{
		{
			ResourceID:   reservation.ResourceID,
			Kind:         model.ChangeAvailability,
			AffectedDate: reservation.Date,
			Timestamp:    now,
		},
		{
			ResourceID:    reservation.ResourceID,
			Kind:          model.ChangeReservation,
			ReservationID: reservation.ID,
			HolderKey:     reservation.Holder().Key(),
			AffectedDate:  reservation.Date,
			Timestamp:     now,
		},
	}
	for _, event := range events {
		if err := s.notifier.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish change event",
				zap.String("resource_id", event.ResourceID),
				zap.String("kind", string(event.Kind)),
				zap.Error(err),
			)
		}
	}
}

func (s *ReservationService) getResource(ctx context.Context, resourceID string) (*model.Resource, error) {
	resource, err := s.catalog.GetResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, storageErr("get resource", err)
	}
	return resource, nil
}

func (s *ReservationService) getReservation(ctx context.Context, reservationID string) (*model.Reservation, error) {
	reservation, err := s.store.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, storageErr("get reservation", err)
	}
	return reservation, nil
}

// validateStatic applies the constraints that do not depend on other
// reservations: operating hours, duration bounds, and lead time.
func validateStatic(r *model.Resource, date time.Time, start model.TimeOfDay, duration time.Duration, now time.Time) error {
	hours, ok := r.HoursOn(date.Weekday())
	if !ok {
		return model.ErrClosedDay
	}
	if start < hours.Open || start >= hours.Close {
		return model.ErrOutsideOperatingHours
	}
	if duration < r.MinimumDuration() {
		return model.ErrTooShort
	}
	if start.At(date).Before(now.Add(r.AdvanceNotice)) {
		return model.ErrInsufficientLeadTime
	}
	if start.Add(duration) > hours.Close {
		return model.ErrTooLong
	}
	if r.MaxHours > 0 && duration > time.Duration(r.MaxHours)*time.Hour {
		return model.ErrTooLong
	}
	return nil
}

// conflicts reports whether the candidate interval, including its own
// preparation buffer, overlaps any active reservation's occupied
// interval. This is the no-double-booking invariant.
func conflicts(r *model.Resource, start model.TimeOfDay, duration time.Duration, active []*model.Reservation) bool {
	candidate := model.Reservation{Start: start, Duration: duration}
	candFrom, candTo := candidate.OccupiedInterval(r)
	for _, res := range active {
		from, to := res.OccupiedInterval(r)
		if candFrom < to && from < candTo {
			return true
		}
	}
	return false
}
