package storage

import (
	"context"
	"time"

	"github.com/lucasavelar/agendly/libs/db"
	"github.com/lucasavelar/agendly/services/reminder-service/internal/sweep"
)

// AppointmentRepository reads the booking ledger for reminder candidates.
type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// DueWindow lists active appointments with a contact identifier that start
// within [from, to]. Cancelled, completed and no-show appointments never
// receive reminders.
func (r *AppointmentRepository) DueWindow(ctx context.Context, from, to time.Time) ([]sweep.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, professional_id, client_name, client_contact, start_time, created_at
		FROM appointments
		WHERE status IN ('scheduled', 'confirmed')
		  AND client_contact <> ''
		  AND start_time >= $1
		  AND start_time <= $2
		ORDER BY start_time
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []sweep.Appointment
	for rows.Next() {
		var a sweep.Appointment
		if err := rows.Scan(&a.ID, &a.ProfessionalID, &a.ClientName, &a.ClientContact, &a.StartTime, &a.CreatedAt); err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}
