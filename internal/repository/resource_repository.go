package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/booking_engine/internal/model"
	"github.com/Freeeeeet/booking_engine/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResourceRepository reads bookable resource definitions. The engine
// treats the catalog as read-only; Upsert exists for the external
// management flow and for seeding.
type ResourceRepository struct {
	*base.Repository
}

func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{Repository: base.NewRepository(pool)}
}

// GetResource loads a resource with its weekly operating calendar.
func (r *ResourceRepository) GetResource(ctx context.Context, resourceID string) (*model.Resource, error) {
	query := `
		SELECT id, studio_id, min_duration_minutes, max_hours, advance_notice_minutes, prep_buffer_minutes, buffer_placement
		FROM resources
		WHERE id = $1
	`

	var (
		resource        model.Resource
		minMinutes      int
		advanceMinutes  int
		bufferMinutes   int
		bufferPlacement string
	)
	err := r.QueryRow(ctx, query, resourceID).Scan(
		&resource.ID,
		&resource.StudioID,
		&minMinutes,
		&resource.MaxHours,
		&advanceMinutes,
		&bufferMinutes,
		&bufferPlacement,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get resource: %w", err)
	}
	resource.MinDuration = time.Duration(minMinutes) * time.Minute
	resource.AdvanceNotice = time.Duration(advanceMinutes) * time.Minute
	resource.PrepBuffer = time.Duration(bufferMinutes) * time.Minute
	resource.BufferPlacement = model.BufferPlacement(bufferPlacement)

	hours, err := r.loadHours(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	resource.Hours = hours

	return &resource, nil
}

func (r *ResourceRepository) loadHours(ctx context.Context, resourceID string) (map[time.Weekday]model.DayHours, error) {
	query := `
		SELECT weekday, open_minute, close_minute
		FROM resource_hours
		WHERE resource_id = $1
	`

	rows, err := r.Query(ctx, query, resourceID)
	if err != nil {
		return nil, fmt.Errorf("get resource hours: %w", err)
	}
	defer rows.Close()

	hours := make(map[time.Weekday]model.DayHours)
	for rows.Next() {
		var weekday, openMinute, closeMinute int
		if err := rows.Scan(&weekday, &openMinute, &closeMinute); err != nil {
			return nil, fmt.Errorf("scan resource hours: %w", err)
		}
		hours[time.Weekday(weekday)] = model.DayHours{
			Open:  model.TimeOfDay(openMinute),
			Close: model.TimeOfDay(closeMinute),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resource hours: %w", err)
	}
	return hours, nil
}

// Upsert writes a resource definition and replaces its calendar.
func (r *ResourceRepository) Upsert(ctx context.Context, resource *model.Resource) error {
	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO resources (id, studio_id, min_duration_minutes, max_hours, advance_notice_minutes, prep_buffer_minutes, buffer_placement)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			studio_id = EXCLUDED.studio_id,
			min_duration_minutes = EXCLUDED.min_duration_minutes,
			max_hours = EXCLUDED.max_hours,
			advance_notice_minutes = EXCLUDED.advance_notice_minutes,
			prep_buffer_minutes = EXCLUDED.prep_buffer_minutes,
			buffer_placement = EXCLUDED.buffer_placement
	`

	placement := resource.BufferPlacement
	if placement == "" {
		placement = model.BufferAfter
	}

	_, err = tx.Exec(
		ctx, query,
		resource.ID,
		resource.StudioID,
		int(resource.MinDuration/time.Minute),
		resource.MaxHours,
		int(resource.AdvanceNotice/time.Minute),
		int(resource.PrepBuffer/time.Minute),
		string(placement),
	)
	if err != nil {
		return fmt.Errorf("upsert resource: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM resource_hours WHERE resource_id = $1`, resource.ID); err != nil {
		return fmt.Errorf("clear resource hours: %w", err)
	}

	for weekday, hours := range resource.Hours {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO resource_hours (resource_id, weekday, open_minute, close_minute) VALUES ($1, $2, $3, $4)`,
			resource.ID, int(weekday), int(hours.Open), int(hours.Close),
		)
		if err != nil {
			return fmt.Errorf("insert resource hours: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
