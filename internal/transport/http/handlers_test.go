package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/booking_engine/internal/model"
	"github.com/Freeeeeet/booking_engine/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAvailability struct {
	window *model.AvailabilityWindow
	slots  []model.SlotInfo
	err    error
}

func (s *stubAvailability) QueryAvailability(_ context.Context, _ string, _ time.Time, _ *model.TimeOfDay) (*model.AvailabilityWindow, error) {
	return s.window, s.err
}

func (s *stubAvailability) DaySlots(_ context.Context, _ string, _ time.Time) ([]model.SlotInfo, error) {
	return s.slots, s.err
}

type stubCoordinator struct {
	reservation *model.Reservation
	list        []*model.Reservation
	err         error

	bookReq   *service.BookRequest
	cancelled string
	requester model.Identity
}

func (s *stubCoordinator) Book(_ context.Context, req service.BookRequest) (*model.Reservation, error) {
	s.bookReq = &req
	return s.reservation, s.err
}

func (s *stubCoordinator) Confirm(_ context.Context, _ string) (*model.Reservation, error) {
	return s.reservation, s.err
}

func (s *stubCoordinator) Cancel(_ context.Context, reservationID string, requester model.Identity) error {
	s.cancelled = reservationID
	s.requester = requester
	return s.err
}

func (s *stubCoordinator) ListByHolder(_ context.Context, _ model.Identity) ([]*model.Reservation, error) {
	return s.list, s.err
}

func newTestRouter(availability *stubAvailability, coordinator *stubCoordinator) http.Handler {
	if availability == nil {
		availability = &stubAvailability{}
	}
	if coordinator == nil {
		coordinator = &stubCoordinator{}
	}
	return NewRouter(availability, coordinator, zap.NewNop())
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sampleReservation() *model.Reservation {
	expiry := time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC)
	return &model.Reservation{
		ID:           "r1",
		ResourceID:   "res-1",
		Date:         time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Start:        10 * 60,
		Duration:     2 * time.Hour,
		Status:       model.ReservationStatusPending,
		HolderUserID: "user-1",
		ExpiresAt:    &expiry,
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestRouter(nil, nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestQueryAvailability(t *testing.T) {
	t.Parallel()

	t.Run("returns the window", func(t *testing.T) {
		availability := &stubAvailability{window: &model.AvailabilityWindow{
			ResourceID: "res-1",
			Date:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Start:      10 * 60,
			End:        18 * 60,
			MinBooking: time.Hour,
			MaxBooking: 8 * time.Hour,
		}}
		rec := doRequest(t, newTestRouter(availability, nil), http.MethodGet,
			"/availability?resource_id=res-1&date=2026-03-02&start=10:00", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{
			"resource_id": "res-1",
			"date": "2026-03-02",
			"start": "10:00",
			"end": "18:00",
			"min_minutes": 60,
			"max_minutes": 480
		}`, rec.Body.String())
	})

	t.Run("missing resource id", func(t *testing.T) {
		rec := doRequest(t, newTestRouter(nil, nil), http.MethodGet, "/availability?date=2026-03-02", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		rec := doRequest(t, newTestRouter(nil, nil), http.MethodGet, "/availability?resource_id=res-1&date=tuesday", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_date")
	})

	t.Run("bad start", func(t *testing.T) {
		rec := doRequest(t, newTestRouter(nil, nil), http.MethodGet, "/availability?resource_id=res-1&date=2026-03-02&start=noonish", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_start")
	})

	t.Run("no window maps to conflict", func(t *testing.T) {
		availability := &stubAvailability{err: model.ErrNoWindow}
		rec := doRequest(t, newTestRouter(availability, nil), http.MethodGet, "/availability?resource_id=res-1&date=2026-03-02", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "no_window")
	})

	t.Run("closed day maps to bad request", func(t *testing.T) {
		availability := &stubAvailability{err: model.ErrClosedDay}
		rec := doRequest(t, newTestRouter(availability, nil), http.MethodGet, "/availability?resource_id=res-1&date=2026-03-02", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "closed_day")
	})
}

func TestDaySlots(t *testing.T) {
	t.Parallel()

	availability := &stubAvailability{slots: []model.SlotInfo{
		{Start: 9 * 60, Available: true, MaxDuration: 3 * time.Hour},
		{Start: 10 * 60, Available: false},
	}}
	rec := doRequest(t, newTestRouter(availability, nil), http.MethodGet,
		"/availability/slots?resource_id=res-1&date=2026-03-02", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"start": "09:00", "available": true, "max_minutes": 180},
		{"start": "10:00", "available": false, "max_minutes": 0}
	]`, rec.Body.String())
}

func TestBookHandler(t *testing.T) {
	t.Parallel()

	const body = `{
		"resource_id": "res-1",
		"date": "2026-03-02",
		"start": "10:00",
		"duration_minutes": 120,
		"holder": {"user_id": "user-1"}
	}`

	t.Run("creates a reservation", func(t *testing.T) {
		coordinator := &stubCoordinator{reservation: sampleReservation()}
		rec := doRequest(t, newTestRouter(nil, coordinator), http.MethodPost, "/reservations", body)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{
			"id": "r1",
			"resource_id": "res-1",
			"date": "2026-03-02",
			"start": "10:00",
			"duration_minutes": 120,
			"status": "pending",
			"expires_at": "2026-03-01T12:15:00Z"
		}`, rec.Body.String())

		require.NotNil(t, coordinator.bookReq)
		assert.Equal(t, 2*time.Hour, coordinator.bookReq.Duration)
		assert.Equal(t, "user-1", coordinator.bookReq.Holder.UserID)
	})

	t.Run("slot taken maps to conflict", func(t *testing.T) {
		coordinator := &stubCoordinator{err: model.ErrSlotTaken}
		rec := doRequest(t, newTestRouter(nil, coordinator), http.MethodPost, "/reservations", body)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "slot_taken")
	})

	t.Run("storage trouble maps to service unavailable", func(t *testing.T) {
		coordinator := &stubCoordinator{err: model.ErrStorageUnavailable}
		rec := doRequest(t, newTestRouter(nil, coordinator), http.MethodPost, "/reservations", body)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := doRequest(t, newTestRouter(nil, nil), http.MethodPost, "/reservations", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-positive duration", func(t *testing.T) {
		rec := doRequest(t, newTestRouter(nil, nil), http.MethodPost, "/reservations",
			`{"resource_id":"res-1","date":"2026-03-02","start":"10:00","duration_minutes":0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_duration")
	})
}

func TestConfirmHandler(t *testing.T) {
	t.Parallel()

	t.Run("confirms", func(t *testing.T) {
		confirmed := sampleReservation()
		confirmed.Status = model.ReservationStatusConfirmed
		confirmed.ExpiresAt = nil
		coordinator := &stubCoordinator{reservation: confirmed}

		rec := doRequest(t, newTestRouter(nil, coordinator), http.MethodPost, "/reservations/r1/confirm", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"confirmed"`)
	})

	t.Run("expired hold maps to conflict", func(t *testing.T) {
		coordinator := &stubCoordinator{err: model.ErrNotPending}
		rec := doRequest(t, newTestRouter(nil, coordinator), http.MethodPost, "/reservations/r1/confirm", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "not_pending")
	})

	t.Run("unknown reservation", func(t *testing.T) {
		coordinator := &stubCoordinator{err: model.ErrNotFound}
		rec := doRequest(t, newTestRouter(nil, coordinator), http.MethodPost, "/reservations/missing/confirm", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCancelHandler(t *testing.T) {
	t.Parallel()

	t.Run("cancels with requester identity", func(t *testing.T) {
		coordinator := &stubCoordinator{}
		rec := doRequest(t, newTestRouter(nil, coordinator), http.MethodPost,
			"/reservations/r1/cancel", `{"user_id":"user-1"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "r1", coordinator.cancelled)
		assert.Equal(t, "user-1", coordinator.requester.UserID)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		coordinator := &stubCoordinator{err: model.ErrForbidden}
		rec := doRequest(t, newTestRouter(nil, coordinator), http.MethodPost,
			"/reservations/r1/cancel", `{"user_id":"intruder"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("past reservation maps to conflict", func(t *testing.T) {
		coordinator := &stubCoordinator{err: model.ErrNotCancellable}
		rec := doRequest(t, newTestRouter(nil, coordinator), http.MethodPost,
			"/reservations/r1/cancel", `{"user_id":"user-1"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestListByHolderHandler(t *testing.T) {
	t.Parallel()

	t.Run("lists reservations", func(t *testing.T) {
		coordinator := &stubCoordinator{list: []*model.Reservation{sampleReservation()}}
		rec := doRequest(t, newTestRouter(nil, coordinator), http.MethodGet, "/reservations?user_id=user-1", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":"r1"`)
	})

	t.Run("requires an identity", func(t *testing.T) {
		rec := doRequest(t, newTestRouter(nil, nil), http.MethodGet, "/reservations", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
