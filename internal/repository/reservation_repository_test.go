package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/booking_engine/internal/model"
	"github.com/Freeeeeet/booking_engine/internal/repository"
	"github.com/Freeeeeet/booking_engine/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	repoDate = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	repoNow  = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func seedResource(t *testing.T, ctx context.Context, resources *repository.ResourceRepository) *model.Resource {
	t.Helper()
	resource := &model.Resource{
		ID:       "res-" + uuid.NewString(),
		StudioID: "studio-1",
		Hours: map[time.Weekday]model.DayHours{
			time.Monday: {Open: 9 * 60, Close: 18 * 60},
		},
		MinDuration: time.Hour,
	}
	require.NoError(t, resources.Upsert(ctx, resource))
	return resource
}

func newReservation(resourceID string, start model.TimeOfDay, status model.ReservationStatus, expiresAt *time.Time) *model.Reservation {
	return &model.Reservation{
		ID:           uuid.NewString(),
		ResourceID:   resourceID,
		Date:         repoDate,
		Start:        start,
		Duration:     time.Hour,
		Status:       status,
		HolderUserID: "user-1",
		CreatedAt:    repoNow,
		ExpiresAt:    expiresAt,
	}
}

func TestReservationRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)

	resources := repository.NewResourceRepository(pool)
	repo := repository.NewReservationRepository(pool)

	resource := seedResource(t, ctx, resources)
	liveExpiry := repoNow.Add(15 * time.Minute)
	lapsedExpiry := repoNow.Add(-time.Minute)

	t.Run("create and get round trip", func(t *testing.T) {
		reservation := newReservation(resource.ID, 10*60, model.ReservationStatusPending, &liveExpiry)
		require.NoError(t, repo.Create(ctx, reservation))

		got, err := repo.GetByID(ctx, reservation.ID)
		require.NoError(t, err)
		assert.Equal(t, reservation.ID, got.ID)
		assert.Equal(t, model.TimeOfDay(10*60), got.Start)
		assert.Equal(t, time.Hour, got.Duration)
		assert.Equal(t, model.ReservationStatusPending, got.Status)
		require.NotNil(t, got.ExpiresAt)
		assert.WithinDuration(t, liveExpiry, *got.ExpiresAt, time.Second)
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("list active excludes lapsed and terminal", func(t *testing.T) {
		res := seedResource(t, ctx, resources)

		confirmed := newReservation(res.ID, 9*60, model.ReservationStatusConfirmed, nil)
		live := newReservation(res.ID, 11*60, model.ReservationStatusPending, &liveExpiry)
		lapsed := newReservation(res.ID, 13*60, model.ReservationStatusPending, &lapsedExpiry)
		cancelled := newReservation(res.ID, 15*60, model.ReservationStatusCancelled, nil)
		for _, r := range []*model.Reservation{confirmed, live, lapsed, cancelled} {
			require.NoError(t, repo.Create(ctx, r))
		}

		active, err := repo.ListActive(ctx, res.ID, repoDate, repoNow)
		require.NoError(t, err)
		require.Len(t, active, 2)
		// Ordered by start minute.
		assert.Equal(t, confirmed.ID, active[0].ID)
		assert.Equal(t, live.ID, active[1].ID)
	})

	t.Run("list by holder matches user id or phone", func(t *testing.T) {
		res := seedResource(t, ctx, resources)

		mine := newReservation(res.ID, 9*60, model.ReservationStatusConfirmed, nil)
		byPhone := newReservation(res.ID, 11*60, model.ReservationStatusConfirmed, nil)
		byPhone.HolderUserID = ""
		byPhone.HolderPhone = "+15550001"
		other := newReservation(res.ID, 13*60, model.ReservationStatusConfirmed, nil)
		other.HolderUserID = "someone-else"
		for _, r := range []*model.Reservation{mine, byPhone, other} {
			require.NoError(t, repo.Create(ctx, r))
		}

		got, err := repo.ListByHolder(ctx, model.Identity{UserID: "user-1", Phone: "+15550001"})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		// Empty identity fields never match rows with empty columns.
		got, err = repo.ListByHolder(ctx, model.Identity{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("list expired pending", func(t *testing.T) {
		res := seedResource(t, ctx, resources)

		live := newReservation(res.ID, 9*60, model.ReservationStatusPending, &liveExpiry)
		lapsed := newReservation(res.ID, 11*60, model.ReservationStatusPending, &lapsedExpiry)
		require.NoError(t, repo.Create(ctx, live))
		require.NoError(t, repo.Create(ctx, lapsed))

		due, err := repo.ListExpiredPending(ctx, repoNow)
		require.NoError(t, err)

		ids := make([]string, 0, len(due))
		for _, r := range due {
			ids = append(ids, r.ID)
		}
		assert.Contains(t, ids, lapsed.ID)
		assert.NotContains(t, ids, live.ID)
	})

	t.Run("transition applies only from the expected status", func(t *testing.T) {
		res := seedResource(t, ctx, resources)

		reservation := newReservation(res.ID, 9*60, model.ReservationStatusPending, &liveExpiry)
		require.NoError(t, repo.Create(ctx, reservation))

		ok, err := repo.Transition(ctx, reservation.ID, model.ReservationStatusPending, model.ReservationStatusConfirmed)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.GetByID(ctx, reservation.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReservationStatusConfirmed, got.Status)
		assert.Nil(t, got.ExpiresAt)

		// Second attempt finds the precondition gone.
		ok, err = repo.Transition(ctx, reservation.ID, model.ReservationStatusPending, model.ReservationStatusExpired)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err = repo.GetByID(ctx, reservation.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReservationStatusConfirmed, got.Status)
	})
}

func TestResourceRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.TruncateAll(t, ctx, pool)

	resources := repository.NewResourceRepository(pool)

	t.Run("round trip with calendar", func(t *testing.T) {
		resource := &model.Resource{
			ID:       "res-roundtrip",
			StudioID: "studio-1",
			Hours: map[time.Weekday]model.DayHours{
				time.Monday:   {Open: 9 * 60, Close: 18 * 60},
				time.Saturday: {Open: 10 * 60, Close: model.EndOfDay},
			},
			MinDuration:     2 * time.Hour,
			MaxHours:        6,
			AdvanceNotice:   24 * time.Hour,
			PrepBuffer:      30 * time.Minute,
			BufferPlacement: model.BufferBoth,
		}
		require.NoError(t, resources.Upsert(ctx, resource))

		got, err := resources.GetResource(ctx, "res-roundtrip")
		require.NoError(t, err)
		assert.Equal(t, resource.StudioID, got.StudioID)
		assert.Equal(t, resource.MinDuration, got.MinDuration)
		assert.Equal(t, resource.MaxHours, got.MaxHours)
		assert.Equal(t, resource.AdvanceNotice, got.AdvanceNotice)
		assert.Equal(t, resource.PrepBuffer, got.PrepBuffer)
		assert.Equal(t, model.BufferBoth, got.BufferPlacement)
		assert.Equal(t, resource.Hours, got.Hours)
	})

	t.Run("upsert replaces the calendar", func(t *testing.T) {
		resource := &model.Resource{
			ID:       "res-replace",
			StudioID: "studio-1",
			Hours: map[time.Weekday]model.DayHours{
				time.Monday:  {Open: 9 * 60, Close: 18 * 60},
				time.Tuesday: {Open: 9 * 60, Close: 18 * 60},
			},
		}
		require.NoError(t, resources.Upsert(ctx, resource))

		resource.Hours = map[time.Weekday]model.DayHours{
			time.Friday: {Open: 12 * 60, Close: 20 * 60},
		}
		require.NoError(t, resources.Upsert(ctx, resource))

		got, err := resources.GetResource(ctx, "res-replace")
		require.NoError(t, err)
		assert.Equal(t, resource.Hours, got.Hours)
	})

	t.Run("unknown resource", func(t *testing.T) {
		_, err := resources.GetResource(ctx, "missing")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}
