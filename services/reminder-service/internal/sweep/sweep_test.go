package sweep

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeSource struct {
	appts []Appointment
	err   error
}

func (f *fakeSource) DueWindow(_ context.Context, from, to time.Time) ([]Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []Appointment
	for _, a := range f.appts {
		if !a.StartTime.Before(from) && !a.StartTime.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

type recordKey struct {
	appointmentID string
	tier          Tier
}

type fakeStore struct {
	records    map[recordKey]ReminderRecord
	order      []ReminderRecord
	existsErr  error
	recordErr  error
	loseClaims bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[recordKey]ReminderRecord{}}
}

func (f *fakeStore) Exists(_ context.Context, appointmentID string, tier Tier) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.records[recordKey{appointmentID, tier}]
	return ok, nil
}

func (f *fakeStore) Record(_ context.Context, rec ReminderRecord) (bool, error) {
	if f.recordErr != nil {
		return false, f.recordErr
	}
	if f.loseClaims {
		return false, nil
	}
	key := recordKey{rec.AppointmentID, rec.Tier}
	if _, ok := f.records[key]; ok {
		return false, nil
	}
	f.records[key] = rec
	f.order = append(f.order, rec)
	return true, nil
}

type fakeSender struct {
	sent    []string
	failFor map[string]error
}

func (f *fakeSender) Send(_ context.Context, contact, _ string) error {
	if err, ok := f.failFor[contact]; ok {
		return err
	}
	f.sent = append(f.sent, contact)
	return nil
}

func (f *fakeSender) ProviderID() string { return "fake" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSweeper(source *fakeSource, store *fakeStore, sender *fakeSender, now time.Time) *Sweeper {
	return NewSweeper(source, store, sender, testLogger(), Config{
		Now: func() time.Time { return now },
	})
}

// Booked three days ahead. Sweeping at 24h, 1h and 30min before start
// accumulates exactly three records in chronological tier order.
func TestSweep_TiersAccumulateAcrossRuns(t *testing.T) {
	start := time.Date(2026, 9, 5, 14, 0, 0, 0, time.UTC)
	appt := Appointment{
		ID:            "a1",
		ClientName:    "Marina",
		ClientContact: "+5511999990001",
		StartTime:     start,
		CreatedAt:     start.Add(-72 * time.Hour),
	}
	source := &fakeSource{appts: []Appointment{appt}}
	store := newFakeStore()
	sender := &fakeSender{}

	sweepAt := []struct {
		now  time.Time
		tier Tier
	}{
		{start.Add(-24 * time.Hour), Tier24h},
		{start.Add(-time.Hour), Tier1h},
		{start.Add(-30 * time.Minute), Tier30m},
	}
	for _, s := range sweepAt {
		sweeper := newTestSweeper(source, store, sender, s.now)
		summary, err := sweeper.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("sweep at %s: %v", s.now, err)
		}
		if summary.Sent[s.tier] != 1 {
			t.Fatalf("sweep at %s: expected one %s send, got %+v", s.now, s.tier, summary)
		}
	}

	if len(store.order) != 3 {
		t.Fatalf("expected 3 records, got %d", len(store.order))
	}
	wantOrder := []Tier{Tier24h, Tier1h, Tier30m}
	for i, rec := range store.order {
		if rec.Tier != wantOrder[i] {
			t.Fatalf("record %d: tier %q, want %q", i, rec.Tier, wantOrder[i])
		}
		if rec.Outcome != OutcomeSent {
			t.Fatalf("record %d: outcome %q, want sent", i, rec.Outcome)
		}
	}
}

// Running the same sweep repeatedly within one window sends at most once.
func TestSweep_IdempotentWithinWindow(t *testing.T) {
	start := time.Date(2026, 9, 5, 14, 0, 0, 0, time.UTC)
	appt := Appointment{
		ID:            "a1",
		ClientName:    "Marina",
		ClientContact: "+5511999990001",
		StartTime:     start,
		CreatedAt:     start.Add(-48 * time.Hour),
	}
	source := &fakeSource{appts: []Appointment{appt}}
	store := newFakeStore()
	sender := &fakeSender{}

	for i, offset := range []time.Duration{-24 * time.Hour, -1438 * time.Minute, -1390 * time.Minute} {
		sweeper := newTestSweeper(source, store, sender, start.Add(offset))
		summary, err := sweeper.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if i == 0 && summary.Sent[Tier24h] != 1 {
			t.Fatalf("first run should send, got %+v", summary)
		}
		if i > 0 && summary.Sent[Tier24h] != 0 {
			t.Fatalf("run %d resent the 24h reminder: %+v", i, summary)
		}
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", len(sender.sent))
	}
}

// A failed delivery is recorded with its error and never retried.
func TestSweep_FailedSendRecordedNotRetried(t *testing.T) {
	start := time.Date(2026, 9, 5, 14, 0, 0, 0, time.UTC)
	appt := Appointment{
		ID:            "a1",
		ClientName:    "Marina",
		ClientContact: "+5511999990001",
		StartTime:     start,
		CreatedAt:     start.Add(-48 * time.Hour),
	}
	source := &fakeSource{appts: []Appointment{appt}}
	store := newFakeStore()
	sender := &fakeSender{failFor: map[string]error{
		"+5511999990001": errors.New("gateway timeout"),
	}}

	sweeper := newTestSweeper(source, store, sender, start.Add(-24*time.Hour))
	summary, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Errors != 1 || summary.Sent[Tier24h] != 0 {
		t.Fatalf("expected one error and no sends, got %+v", summary)
	}
	rec, ok := store.records[recordKey{"a1", Tier24h}]
	if !ok {
		t.Fatalf("failed send must still be recorded")
	}
	if rec.Outcome != OutcomeFailed || rec.ErrorMessage == "" {
		t.Fatalf("record should carry the failure: %+v", rec)
	}

	// Second run in the same window: record exists, no retry.
	delete(sender.failFor, "+5511999990001")
	summary, err = sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Sent[Tier24h] != 0 || summary.Skipped != 1 {
		t.Fatalf("failed reminder was retried: %+v", summary)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("no delivery should have happened")
	}
}

// One bad appointment does not stop the rest of the batch.
func TestSweep_FaultIsolation(t *testing.T) {
	start := time.Date(2026, 9, 5, 14, 0, 0, 0, time.UTC)
	source := &fakeSource{appts: []Appointment{
		{ID: "a1", ClientName: "A", ClientContact: "+1", StartTime: start, CreatedAt: start.Add(-48 * time.Hour)},
		{ID: "a2", ClientName: "B", ClientContact: "+2", StartTime: start, CreatedAt: start.Add(-48 * time.Hour)},
		{ID: "a3", ClientName: "C", ClientContact: "+3", StartTime: start, CreatedAt: start.Add(-48 * time.Hour)},
	}}
	store := newFakeStore()
	sender := &fakeSender{failFor: map[string]error{"+2": errors.New("boom")}}

	sweeper := newTestSweeper(source, store, sender, start.Add(-24*time.Hour))
	summary, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Processed != 3 {
		t.Fatalf("expected 3 processed, got %d", summary.Processed)
	}
	if summary.Sent[Tier24h] != 2 || summary.Errors != 1 {
		t.Fatalf("expected 2 sent and 1 error, got %+v", summary)
	}
}

// Losing the insert race to a concurrent sweep counts as a skip, not an error.
func TestSweep_ConcurrentClaimSkipped(t *testing.T) {
	start := time.Date(2026, 9, 5, 14, 0, 0, 0, time.UTC)
	source := &fakeSource{appts: []Appointment{
		{ID: "a1", ClientName: "A", ClientContact: "+1", StartTime: start, CreatedAt: start.Add(-48 * time.Hour)},
	}}
	store := newFakeStore()
	store.loseClaims = true

	sweeper := newTestSweeper(source, store, &fakeSender{}, start.Add(-24*time.Hour))
	summary, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Skipped != 1 || summary.Errors != 0 {
		t.Fatalf("expected skip without error, got %+v", summary)
	}
}

// Appointments outside any firing window are skipped.
func TestSweep_OutsideWindowsSkipped(t *testing.T) {
	start := time.Date(2026, 9, 5, 14, 0, 0, 0, time.UTC)
	source := &fakeSource{appts: []Appointment{
		{ID: "a1", ClientName: "A", ClientContact: "+1", StartTime: start, CreatedAt: start.Add(-48 * time.Hour)},
	}}
	store := newFakeStore()
	sender := &fakeSender{}

	// 5 hours out: between the 24h and 1h windows.
	sweeper := newTestSweeper(source, store, sender, start.Add(-5*time.Hour))
	summary, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Skipped != 1 || len(sender.sent) != 0 {
		t.Fatalf("expected skip, got %+v", summary)
	}
}

func TestSweep_SourceErrorPropagates(t *testing.T) {
	source := &fakeSource{err: errors.New("db down")}
	sweeper := newTestSweeper(source, newFakeStore(), &fakeSender{}, time.Now().UTC())
	if _, err := sweeper.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected error from source")
	}
}

func TestSweep_StoreLookupErrorIsolated(t *testing.T) {
	start := time.Date(2026, 9, 5, 14, 0, 0, 0, time.UTC)
	source := &fakeSource{appts: []Appointment{
		{ID: "a1", ClientName: "A", ClientContact: "+1", StartTime: start, CreatedAt: start.Add(-48 * time.Hour)},
	}}
	store := newFakeStore()
	store.existsErr = errors.New("db hiccup")

	sweeper := newTestSweeper(source, store, &fakeSender{}, start.Add(-24*time.Hour))
	summary, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("lookup failure should not abort the run: %v", err)
	}
	if summary.Errors != 1 {
		t.Fatalf("expected one error, got %+v", summary)
	}
}
