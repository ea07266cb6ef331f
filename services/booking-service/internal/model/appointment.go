package model

import "time"

// Status is the closed set of appointment states. Transitions between them
// are governed by the lifecycle package.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusNoShow, StatusCancelled:
		return true
	}
	return false
}

// Blocks reports whether an appointment in this status occupies its time
// range for availability purposes. Cancelled and no-show appointments free
// the slot.
func (s Status) Blocks() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusNoShow, StatusCancelled:
		return true
	}
	return false
}

type Appointment struct {
	ID             string
	ProfessionalID string
	ClientName     string
	ClientContact  string
	StartTime      time.Time
	EndTime        time.Time
	Status         Status
	CancelledAt    *time.Time
	CancelReason   string
	CreatedAt      time.Time
}
