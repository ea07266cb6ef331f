package availability

import (
	"context"
	"testing"
	"time"

	"github.com/lucasavelar/agendly/services/booking-service/internal/model"
)

type fakeSchedule struct {
	hours  map[int]model.WorkingHours
	blocks []model.BlockedInterval
}

func (f *fakeSchedule) WorkingHoursFor(_ context.Context, _ string, weekday int) (model.WorkingHours, bool, error) {
	wh, ok := f.hours[weekday]
	return wh, ok, nil
}

func (f *fakeSchedule) ListBlockedIntervals(_ context.Context, _ string, from, to time.Time) ([]model.BlockedInterval, error) {
	var out []model.BlockedInterval
	for _, b := range f.blocks {
		if b.StartTime.Before(to) && from.Before(b.EndTime) {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeBookings struct {
	appts []model.Appointment
}

func (f *fakeBookings) ListBlockingIntervals(_ context.Context, _ string, from, to time.Time) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.appts {
		if a.Status.Blocks() && a.StartTime.Before(to) && from.Before(a.EndTime) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Wednesday Sep 2 2026, professional works 09:00-18:00, one appointment
// 10:00-10:30. A 30-minute lookup must not offer 10:00 but must offer the
// abutting 09:30 and 10:30.
func TestSlotsForDate_BookedSlotHidden(t *testing.T) {
	d := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	schedule := &fakeSchedule{hours: map[int]model.WorkingHours{
		int(d.Weekday()): {ProfessionalID: "pro-1", Weekday: int(d.Weekday()), StartMinute: 9 * 60, EndMinute: 18 * 60, Active: true},
	}}
	bookings := &fakeBookings{appts: []model.Appointment{
		{ID: "a1", ProfessionalID: "pro-1", StartTime: d.Add(10 * time.Hour), EndTime: d.Add(10*time.Hour + 30*time.Minute), Status: model.StatusScheduled},
	}}

	svc := NewService(schedule, bookings)
	slots, err := svc.SlotsForDate(context.Background(), "pro-1", d, 30*time.Minute, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if containsSlot(slots, d.Add(10*time.Hour)) {
		t.Fatalf("booked 10:00 slot offered")
	}
	if !containsSlot(slots, d.Add(9*time.Hour+30*time.Minute)) {
		t.Fatalf("09:30 missing")
	}
	if !containsSlot(slots, d.Add(10*time.Hour+30*time.Minute)) {
		t.Fatalf("10:30 missing")
	}
	// 09:00 through 17:30 at 30-minute steps is 18 candidates, one booked.
	if len(slots) != 17 {
		t.Fatalf("expected 17 slots, got %d", len(slots))
	}
}

func TestSlotsForDate_DayOffIsEmptyNotError(t *testing.T) {
	d := time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC) // Sunday, no hours row
	svc := NewService(&fakeSchedule{hours: map[int]model.WorkingHours{}}, &fakeBookings{})

	slots, err := svc.SlotsForDate(context.Background(), "pro-1", d, 30*time.Minute, d)
	if err != nil {
		t.Fatalf("expected no error for a day off, got %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected empty result, got %v", slots)
	}
}

func TestSlotsForDate_InactiveHoursIsEmpty(t *testing.T) {
	d := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	schedule := &fakeSchedule{hours: map[int]model.WorkingHours{
		int(d.Weekday()): {ProfessionalID: "pro-1", Weekday: int(d.Weekday()), StartMinute: 9 * 60, EndMinute: 18 * 60, Active: false},
	}}
	svc := NewService(schedule, &fakeBookings{})

	slots, err := svc.SlotsForDate(context.Background(), "pro-1", d, 30*time.Minute, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("inactive day should have no slots, got %v", slots)
	}
}

func TestSlotsForDate_CancelledDoesNotBlock(t *testing.T) {
	d := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	schedule := &fakeSchedule{hours: map[int]model.WorkingHours{
		int(d.Weekday()): {ProfessionalID: "pro-1", Weekday: int(d.Weekday()), StartMinute: 9 * 60, EndMinute: 12 * 60, Active: true},
	}}
	bookings := &fakeBookings{appts: []model.Appointment{
		{ID: "a1", StartTime: d.Add(10 * time.Hour), EndTime: d.Add(10*time.Hour + 30*time.Minute), Status: model.StatusCancelled},
		{ID: "a2", StartTime: d.Add(11 * time.Hour), EndTime: d.Add(11*time.Hour + 30*time.Minute), Status: model.StatusNoShow},
	}}

	svc := NewService(schedule, bookings)
	slots, err := svc.SlotsForDate(context.Background(), "pro-1", d, 30*time.Minute, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !containsSlot(slots, d.Add(10*time.Hour)) {
		t.Fatalf("cancelled appointment should free 10:00")
	}
	if !containsSlot(slots, d.Add(11*time.Hour)) {
		t.Fatalf("no-show appointment should free 11:00")
	}
}

func TestSlotsForDate_BlockedIntervalHidesSlots(t *testing.T) {
	d := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	schedule := &fakeSchedule{
		hours: map[int]model.WorkingHours{
			int(d.Weekday()): {ProfessionalID: "pro-1", Weekday: int(d.Weekday()), StartMinute: 9 * 60, EndMinute: 12 * 60, Active: true},
		},
		blocks: []model.BlockedInterval{
			{ID: "b1", ProfessionalID: "pro-1", StartTime: d.Add(10 * time.Hour), EndTime: d.Add(11 * time.Hour), Reason: "lunch"},
		},
	}

	svc := NewService(schedule, &fakeBookings{})
	slots, err := svc.SlotsForDate(context.Background(), "pro-1", d, 30*time.Minute, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range slots {
		if !s.Before(d.Add(10*time.Hour)) && s.Before(d.Add(11*time.Hour)) {
			t.Fatalf("slot %s falls inside blocked interval", s.Format(time.RFC3339))
		}
	}
	if !containsSlot(slots, d.Add(11*time.Hour)) {
		t.Fatalf("11:00 should be available right after the block")
	}
}

func TestSlotsForDate_InvalidDuration(t *testing.T) {
	d := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	svc := NewService(&fakeSchedule{}, &fakeBookings{})
	if _, err := svc.SlotsForDate(context.Background(), "pro-1", d, 0, d); err != ErrInvalidDuration {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}
