package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lucasavelar/agendly/libs/db"
	"github.com/lucasavelar/agendly/services/booking-service/internal/model"
)

// ScheduleRepository owns the working-hours and blocked-interval registries.
// Both are consumed read-only by the availability engine; writes go through
// the admin API.
type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

func (r *ScheduleRepository) WorkingHoursFor(ctx context.Context, professionalID string, weekday int) (model.WorkingHours, bool, error) {
	var wh model.WorkingHours
	err := r.pool.QueryRow(ctx, `
		SELECT professional_id, weekday, start_minute, end_minute, active
		FROM working_hours
		WHERE professional_id = $1 AND weekday = $2
	`, professionalID, weekday).Scan(&wh.ProfessionalID, &wh.Weekday, &wh.StartMinute, &wh.EndMinute, &wh.Active)
	if err != nil {
		if err == pgx.ErrNoRows {
			return model.WorkingHours{}, false, nil
		}
		return model.WorkingHours{}, false, err
	}
	return wh, true, nil
}

func (r *ScheduleRepository) ListWorkingHours(ctx context.Context, professionalID string) ([]model.WorkingHours, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT professional_id, weekday, start_minute, end_minute, active
		FROM working_hours
		WHERE professional_id = $1
		ORDER BY weekday ASC
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WorkingHours
	for rows.Next() {
		var wh model.WorkingHours
		if err := rows.Scan(&wh.ProfessionalID, &wh.Weekday, &wh.StartMinute, &wh.EndMinute, &wh.Active); err != nil {
			return nil, err
		}
		out = append(out, wh)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ScheduleRepository) UpsertWorkingHours(ctx context.Context, wh model.WorkingHours) error {
	if err := wh.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO working_hours (professional_id, weekday, start_minute, end_minute, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (professional_id, weekday) DO UPDATE
		SET start_minute = EXCLUDED.start_minute,
			end_minute = EXCLUDED.end_minute,
			active = EXCLUDED.active,
			updated_at = now()
	`, wh.ProfessionalID, wh.Weekday, wh.StartMinute, wh.EndMinute, wh.Active)
	return err
}

func (r *ScheduleRepository) CreateBlockedInterval(ctx context.Context, b model.BlockedInterval) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO blocked_intervals (id, professional_id, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, id, b.ProfessionalID, b.StartTime, b.EndTime, b.Reason)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *ScheduleRepository) ListBlockedIntervals(ctx context.Context, professionalID string, from, to time.Time) ([]model.BlockedInterval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, professional_id, start_time, end_time, COALESCE(reason, ''), created_at
		FROM blocked_intervals
		WHERE professional_id = $1
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, professionalID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BlockedInterval
	for rows.Next() {
		var b model.BlockedInterval
		if err := rows.Scan(&b.ID, &b.ProfessionalID, &b.StartTime, &b.EndTime, &b.Reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ScheduleRepository) DeleteBlockedInterval(ctx context.Context, professionalID, blockID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM blocked_intervals
		WHERE id = $1 AND professional_id = $2
	`, blockID, professionalID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
