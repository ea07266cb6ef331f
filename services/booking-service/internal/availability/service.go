package availability

import (
	"context"
	"time"

	"github.com/lucasavelar/agendly/services/booking-service/internal/model"
)

// ScheduleSource provides the professional's recurring hours and ad hoc
// blocked ranges.
type ScheduleSource interface {
	WorkingHoursFor(ctx context.Context, professionalID string, weekday int) (model.WorkingHours, bool, error)
	ListBlockedIntervals(ctx context.Context, professionalID string, from, to time.Time) ([]model.BlockedInterval, error)
}

// BookingSource provides appointments whose status still occupies calendar
// time (cancelled and no-show ones do not block).
type BookingSource interface {
	ListBlockingIntervals(ctx context.Context, professionalID string, from, to time.Time) ([]model.Appointment, error)
}

// Service combines the registries into the bookable-slot computation. It
// holds no state of its own; given identical registry contents and now, the
// output is identical.
type Service struct {
	schedule ScheduleSource
	bookings BookingSource
}

func NewService(schedule ScheduleSource, bookings BookingSource) *Service {
	return &Service{schedule: schedule, bookings: bookings}
}

// SlotsForDate computes bookable start times for a professional on a given
// calendar date. A day without active working hours is a valid, empty result,
// not an error.
func (s *Service) SlotsForDate(ctx context.Context, professionalID string, date time.Time, duration time.Duration, now time.Time) ([]time.Time, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}

	wh, ok, err := s.schedule.WorkingHoursFor(ctx, professionalID, int(date.Weekday()))
	if err != nil {
		return nil, err
	}
	if !ok || !wh.Active {
		return nil, nil
	}

	windowStart, windowEnd := wh.Window(date)

	appts, err := s.bookings.ListBlockingIntervals(ctx, professionalID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	busy := make([]Interval, 0, len(appts))
	for _, a := range appts {
		busy = append(busy, Interval{Start: a.StartTime, End: a.EndTime})
	}

	blocks, err := s.schedule.ListBlockedIntervals(ctx, professionalID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	blocked := make([]Interval, 0, len(blocks))
	for _, b := range blocks {
		blocked = append(blocked, Interval{Start: b.StartTime, End: b.EndTime})
	}

	return ComputeSlots(windowStart, windowEnd, duration, DefaultStep, busy, blocked, now)
}
