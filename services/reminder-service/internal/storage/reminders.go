package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lucasavelar/agendly/libs/db"
	"github.com/lucasavelar/agendly/services/reminder-service/internal/outbox"
	"github.com/lucasavelar/agendly/services/reminder-service/internal/sweep"
)

const (
	eventReminderDispatched     = "reminder.dispatched.v1"
	eventReminderDeliveryFailed = "reminder.delivery_failed.v1"
)

// ReminderRepository owns the reminder_records idempotency ledger. A record
// is inserted exactly once per (appointment, tier) and never updated.
type ReminderRepository struct {
	pool       *db.Pool
	outboxRepo *outbox.Repository
	provider   string
}

func NewReminderRepository(pool *db.Pool, outboxRepo *outbox.Repository, provider string) *ReminderRepository {
	return &ReminderRepository{pool: pool, outboxRepo: outboxRepo, provider: provider}
}

func (r *ReminderRepository) Exists(ctx context.Context, appointmentID string, tier sweep.Tier) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reminder_records
			WHERE appointment_id = $1 AND tier = $2
		)
	`, appointmentID, tier).Scan(&exists)
	return exists, err
}

type reminderEvent struct {
	AppointmentID string    `json:"appointment_id"`
	Tier          string    `json:"tier"`
	Outcome       string    `json:"outcome"`
	Contact       string    `json:"contact"`
	Provider      string    `json:"provider"`
	Error         string    `json:"error,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Record inserts the reminder record and the matching outbox event in one
// transaction. Returns inserted=false when a concurrent sweep already wrote
// the (appointment_id, tier) pair; nothing is written in that case.
func (r *ReminderRepository) Record(ctx context.Context, rec sweep.ReminderRecord) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO reminder_records (appointment_id, tier, outcome, contact, message, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (appointment_id, tier) DO NOTHING
	`, rec.AppointmentID, rec.Tier, rec.Outcome, rec.Contact, rec.Message, rec.ErrorMessage)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, tx.Rollback(ctx)
	}

	eventType := eventReminderDispatched
	if rec.Outcome == sweep.OutcomeFailed {
		eventType = eventReminderDeliveryFailed
	}
	payload, err := json.Marshal(reminderEvent{
		AppointmentID: rec.AppointmentID,
		Tier:          string(rec.Tier),
		Outcome:       string(rec.Outcome),
		Contact:       rec.Contact,
		Provider:      r.provider,
		Error:         rec.ErrorMessage,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		return false, err
	}
	if err := r.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "reminder",
		AggregateID:   rec.AppointmentID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}
