package model

import (
	"errors"
	"time"
)

var (
	ErrInvalidWeekday  = errors.New("weekday must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidInterval = errors.New("interval end must be after start")
)

// WorkingHours is the recurring per-weekday window during which a
// professional accepts bookings. Times are minutes from midnight, matching
// the storage encoding. One row per (professional, weekday).
type WorkingHours struct {
	ProfessionalID string
	Weekday        int
	StartMinute    int
	EndMinute      int
	Active         bool
}

func (wh WorkingHours) Validate() error {
	if wh.Weekday < 0 || wh.Weekday > 6 {
		return ErrInvalidWeekday
	}
	if wh.StartMinute < 0 || wh.EndMinute > 24*60 || wh.StartMinute >= wh.EndMinute {
		return ErrInvalidInterval
	}
	return nil
}

// Window anchors the working hours onto a concrete date.
func (wh WorkingHours) Window(date time.Time) (start, end time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return day.Add(time.Duration(wh.StartMinute) * time.Minute),
		day.Add(time.Duration(wh.EndMinute) * time.Minute)
}

// BlockedInterval is an ad hoc unavailable range (time off, breaks) that
// overrides otherwise-active working hours.
type BlockedInterval struct {
	ID             string
	ProfessionalID string
	StartTime      time.Time
	EndTime        time.Time
	Reason         string
	CreatedAt      time.Time
}

func (b BlockedInterval) Validate() error {
	if !b.EndTime.After(b.StartTime) {
		return ErrInvalidInterval
	}
	return nil
}
