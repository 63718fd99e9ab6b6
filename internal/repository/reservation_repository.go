package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/booking_engine/internal/model"
	"github.com/Freeeeeet/booking_engine/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReservationRepository persists reservations. The table carries an
// index on (resource_id, date) restricted to non-terminal statuses for
// overlap scans, and holder indexes for "my bookings" queries.
type ReservationRepository struct {
	*base.Repository
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{Repository: base.NewRepository(pool)}
}

const reservationColumns = `id, resource_id, date, start_minute, duration_minutes, status, holder_user_id, holder_phone, created_at, expires_at`

// Create inserts a new reservation.
func (r *ReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	query := `
		INSERT INTO reservations
			(id, resource_id, date, start_minute, duration_minutes, status, holder_user_id, holder_phone, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.ExecAffected(
		ctx, query,
		reservation.ID,
		reservation.ResourceID,
		reservation.Date,
		int(reservation.Start),
		int(reservation.Duration/time.Minute),
		string(reservation.Status),
		reservation.HolderUserID,
		reservation.HolderPhone,
		reservation.CreatedAt,
		reservation.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// GetByID fetches a reservation by id.
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	reservation, err := scanReservation(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get reservation by id: %w", err)
	}
	return reservation, nil
}

// ListActive returns the reservations occupying a resource on a date:
// confirmed ones, plus pending ones whose hold has not lapsed. Lapsed
// but unswept holds are excluded so they never block a slot.
func (r *ReservationRepository) ListActive(ctx context.Context, resourceID string, date time.Time, now time.Time) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE resource_id = $1
		  AND date = $2
		  AND (status = 'confirmed' OR (status = 'pending' AND expires_at > $3))
		ORDER BY start_minute
	`

	rows, err := r.Query(ctx, query, resourceID, date, now)
	if err != nil {
		return nil, fmt.Errorf("list active reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// ListByHolder returns all reservations held by a user id or verified
// phone number, newest first.
func (r *ReservationRepository) ListByHolder(ctx context.Context, holder model.Identity) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE (holder_user_id <> '' AND holder_user_id = $1)
		   OR (holder_phone <> '' AND holder_phone = $2)
		ORDER BY date DESC, start_minute DESC
	`

	rows, err := r.Query(ctx, query, holder.UserID, holder.Phone)
	if err != nil {
		return nil, fmt.Errorf("list reservations by holder: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// ListExpiredPending returns pending reservations whose hold lapsed at
// or before now, for the reaper.
func (r *ReservationRepository) ListExpiredPending(ctx context.Context, now time.Time) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = 'pending' AND expires_at <= $1
		ORDER BY expires_at
	`

	rows, err := r.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list expired pending: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// Transition applies a conditional status change. The update only lands
// when the stored status still matches from, which makes concurrent
// confirm/cancel/expire safe; false means the precondition failed.
// Leaving pending always clears the expiry.
func (r *ReservationRepository) Transition(ctx context.Context, id string, from, to model.ReservationStatus) (bool, error) {
	query := `
		UPDATE reservations
		SET status = $2, expires_at = NULL
		WHERE id = $1 AND status = $3
	`

	affected, err := r.ExecAffected(ctx, query, id, string(to), string(from))
	if err != nil {
		return false, fmt.Errorf("transition reservation: %w", err)
	}
	return affected == 1, nil
}

func scanReservation(row pgx.Row) (*model.Reservation, error) {
	var (
		reservation     model.Reservation
		startMinute     int
		durationMinutes int
		status          string
	)
	err := row.Scan(
		&reservation.ID,
		&reservation.ResourceID,
		&reservation.Date,
		&startMinute,
		&durationMinutes,
		&status,
		&reservation.HolderUserID,
		&reservation.HolderPhone,
		&reservation.CreatedAt,
		&reservation.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	reservation.Start = model.TimeOfDay(startMinute)
	reservation.Duration = time.Duration(durationMinutes) * time.Minute
	reservation.Status = model.ReservationStatus(status)
	return &reservation, nil
}

func collectReservations(rows pgx.Rows) ([]*model.Reservation, error) {
	var reservations []*model.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return reservations, nil
}
