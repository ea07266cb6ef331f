package sweep

import (
	"context"
	"log/slog"
	"time"
)

// CandidateHorizon bounds how far ahead the sweep looks for appointments;
// it covers the widest tier window (25h).
const CandidateHorizon = 25 * time.Hour

type Outcome string

const (
	OutcomeSent   Outcome = "sent"
	OutcomeFailed Outcome = "failed"
)

// Appointment is the sweep's read-only view of the booking ledger.
type Appointment struct {
	ID             string
	ProfessionalID string
	ClientName     string
	ClientContact  string
	StartTime      time.Time
	CreatedAt      time.Time
}

// ReminderRecord is the append-only idempotency record for one
// (appointment, tier) pair. It is written exactly once, whatever the
// delivery outcome, and never mutated.
type ReminderRecord struct {
	AppointmentID string
	Tier          Tier
	Outcome       Outcome
	Contact       string
	Message       string
	ErrorMessage  string
}

// AppointmentSource lists reminder candidates: active appointments with a
// contact identifier starting within [from, to].
type AppointmentSource interface {
	DueWindow(ctx context.Context, from, to time.Time) ([]Appointment, error)
}

// ReminderStore persists reminder records. Record must enforce the
// (appointment_id, tier) uniqueness at the storage level and report
// inserted=false when another sweep already claimed the pair.
type ReminderStore interface {
	Exists(ctx context.Context, appointmentID string, tier Tier) (bool, error)
	Record(ctx context.Context, rec ReminderRecord) (inserted bool, err error)
}

// Sender delivers a text message to a contact identifier.
type Sender interface {
	Send(ctx context.Context, contact, text string) error
	ProviderID() string
}

// Summary is the structured result of one sweep pass.
type Summary struct {
	Processed int          `json:"processed"`
	Sent      map[Tier]int `json:"sent"`
	Skipped   int          `json:"skipped"`
	Errors    int          `json:"errors"`
}

type Sweeper struct {
	source  AppointmentSource
	store   ReminderStore
	sender  Sender
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

type Config struct {
	Timeout time.Duration
	Now     func() time.Time // test hook; defaults to time.Now UTC
}

func NewSweeper(source AppointmentSource, store ReminderStore, sender Sender, logger *slog.Logger, cfg Config) *Sweeper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Sweeper{
		source:  source,
		store:   store,
		sender:  sender,
		logger:  logger,
		timeout: cfg.Timeout,
		now:     now,
	}
}

// Run invokes RunOnce on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.Error("reminder sweep failed", "err", err)
				continue
			}
			s.logger.Info("reminder sweep done",
				"processed", summary.Processed,
				"sent_24h", summary.Sent[Tier24h],
				"sent_1h", summary.Sent[Tier1h],
				"sent_30min", summary.Sent[Tier30m],
				"skipped", summary.Skipped,
				"errors", summary.Errors,
			)
		}
	}
}

// RunOnce performs a single sweep pass. Failures on one appointment are
// isolated: they are counted in the summary and processing continues with
// the next candidate. The whole pass is bounded by the configured timeout.
func (s *Sweeper) RunOnce(ctx context.Context) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now()
	summary := Summary{Sent: map[Tier]int{}}

	candidates, err := s.source.DueWindow(ctx, now, now.Add(CandidateHorizon))
	if err != nil {
		return summary, err
	}

	for _, appt := range candidates {
		summary.Processed++
		if appt.ClientContact == "" {
			summary.Skipped++
			continue
		}

		minutesUntil := int(appt.StartTime.Sub(now).Minutes())
		leadMinutes := int(appt.StartTime.Sub(appt.CreatedAt).Minutes())
		tier, ok := TierFor(minutesUntil, leadMinutes)
		if !ok {
			summary.Skipped++
			continue
		}

		exists, err := s.store.Exists(ctx, appt.ID, tier)
		if err != nil {
			s.logger.Error("reminder lookup failed", "err", err, "appointment_id", appt.ID, "tier", tier)
			summary.Errors++
			continue
		}
		if exists {
			// Already handled, whatever the prior outcome. Failed sends are
			// not retried.
			summary.Skipped++
			continue
		}

		text := Message(appt, tier)
		sendErr := s.sender.Send(ctx, appt.ClientContact, text)

		rec := ReminderRecord{
			AppointmentID: appt.ID,
			Tier:          tier,
			Outcome:       OutcomeSent,
			Contact:       appt.ClientContact,
			Message:       text,
		}
		if sendErr != nil {
			rec.Outcome = OutcomeFailed
			rec.ErrorMessage = sendErr.Error()
			s.logger.Error("reminder delivery failed", "err", sendErr, "appointment_id", appt.ID, "tier", tier)
		}

		inserted, err := s.store.Record(ctx, rec)
		if err != nil {
			s.logger.Error("reminder record insert failed", "err", err, "appointment_id", appt.ID, "tier", tier)
			summary.Errors++
			continue
		}
		if !inserted {
			// A concurrent sweep claimed the pair first; treat as already
			// handled rather than an error.
			summary.Skipped++
			continue
		}

		if sendErr != nil {
			summary.Errors++
			continue
		}
		summary.Sent[tier]++
	}

	return summary, nil
}
