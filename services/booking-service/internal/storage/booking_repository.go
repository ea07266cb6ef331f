package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lucasavelar/agendly/libs/db"
	"github.com/lucasavelar/agendly/services/booking-service/internal/model"
)

type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// LockProfessional serializes check-and-commit sequences for one
// professional's calendar. The advisory lock is transaction-scoped and
// released automatically on commit or rollback; the overlap exclusion
// constraint on appointments remains the final arbiter.
func (r *BookingRepository) LockProfessional(ctx context.Context, tx pgx.Tx, professionalID string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, professionalID)
	return err
}

func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(professional_id, client_name, client_contact, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, appt.ProfessionalID, appt.ClientName, appt.ClientContact,
		appt.StartTime, appt.EndTime, string(appt.Status)).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, appointmentID string) (model.Appointment, error) {
	var appt model.Appointment
	var status string
	var cancelledAt *time.Time
	err := tx.QueryRow(ctx, `
		SELECT id, professional_id, client_name, client_contact,
			start_time, end_time, status, cancelled_at, COALESCE(cancel_reason, ''), created_at
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, appointmentID).Scan(
		&appt.ID,
		&appt.ProfessionalID,
		&appt.ClientName,
		&appt.ClientContact,
		&appt.StartTime,
		&appt.EndTime,
		&status,
		&cancelledAt,
		&appt.CancelReason,
		&appt.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.Status(status)
	appt.CancelledAt = cancelledAt
	return appt, nil
}

// UpdateStatus persists a lifecycle transition. Cancellations also record
// the cancellation time and reason; other transitions leave those columns
// untouched.
func (r *BookingRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, appointmentID string, to model.Status, reason string) error {
	if to == model.StatusCancelled {
		_, err := tx.Exec(ctx, `
			UPDATE appointments
			SET status = $2,
				cancelled_at = now(),
				cancel_reason = $3
			WHERE id = $1
		`, appointmentID, string(to), reason)
		return err
	}
	_, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
	`, appointmentID, string(to))
	return err
}

// ListBlockingIntervals returns appointments that still occupy calendar time
// within [from, to). Cancelled and no-show appointments are excluded so their
// slots become bookable again.
func (r *BookingRepository) ListBlockingIntervals(ctx context.Context, professionalID string, from, to time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, professional_id, client_name, client_contact,
			start_time, end_time, status, cancelled_at, COALESCE(cancel_reason, ''), created_at
		FROM appointments
		WHERE professional_id = $1
			AND status IN ('scheduled', 'confirmed', 'completed')
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, professionalID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *BookingRepository) ListByProfessional(ctx context.Context, professionalID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, professional_id, client_name, client_contact,
			start_time, end_time, status, cancelled_at, COALESCE(cancel_reason, ''), created_at
		FROM appointments
		WHERE professional_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, professionalID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func scanAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		var appt model.Appointment
		var status string
		var cancelledAt *time.Time
		if err := rows.Scan(
			&appt.ID,
			&appt.ProfessionalID,
			&appt.ClientName,
			&appt.ClientContact,
			&appt.StartTime,
			&appt.EndTime,
			&status,
			&cancelledAt,
			&appt.CancelReason,
			&appt.CreatedAt,
		); err != nil {
			return nil, err
		}
		appt.Status = model.Status(status)
		appt.CancelledAt = cancelledAt
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// IsConflict reports an exclusion-constraint violation, i.e. an attempted
// commit of an appointment overlapping an existing active one.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

// IsDuplicate reports a unique-constraint violation.
func IsDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
