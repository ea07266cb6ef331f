package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lucasavelar/agendly/libs/httpx"
	"github.com/lucasavelar/agendly/services/booking-service/internal/availability"
	"github.com/lucasavelar/agendly/services/booking-service/internal/lifecycle"
	"github.com/lucasavelar/agendly/services/booking-service/internal/model"
	"github.com/lucasavelar/agendly/services/booking-service/internal/outbox"
	"github.com/lucasavelar/agendly/services/booking-service/internal/storage"
)

const (
	minDurationMinutes = 1
	maxDurationMinutes = 8 * 60
)

type BookingHandler struct {
	repo       *storage.BookingRepository
	slots      *availability.Service
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewBookingHandler(repo *storage.BookingRepository, slots *availability.Service, outboxRepo *outbox.Repository, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		repo:       repo,
		slots:      slots,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Slots lists bookable start times for a professional on a date.
// A day off or fully booked day is an empty list, not an error.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	professionalID := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if professionalID == "" || dateStr == "" {
		httpx.WriteError(w, http.StatusBadRequest, "professional_id and date are required")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid date (want YYYY-MM-DD)")
		return
	}
	duration, ok := parseDurationMinutes(r.URL.Query().Get("duration_minutes"))
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "invalid duration_minutes")
		return
	}

	starts, err := h.slots.SlotsForDate(r.Context(), professionalID, date, duration, time.Now().UTC())
	if err != nil {
		if errors.Is(err, availability.ErrInvalidDuration) {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("slot computation failed", "err", err, "professional_id", professionalID)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to compute slots")
		return
	}

	items := make([]slotItem, 0, len(starts))
	for _, s := range starts {
		items = append(items, slotItem{
			StartTime: s.UTC().Format(time.RFC3339),
			EndTime:   s.Add(duration).UTC().Format(time.RFC3339),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

type createBookingRequest struct {
	ProfessionalID  string `json:"professional_id"`
	ClientName      string `json:"client_name"`
	ClientContact   string `json:"client_contact"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type createBookingResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

// Create commits a booking. The check-and-commit sequence runs under a
// per-professional advisory lock; the appointments overlap exclusion
// constraint is the storage-level backstop.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientContact = strings.TrimSpace(req.ClientContact)
	if req.ProfessionalID == "" || req.ClientName == "" {
		httpx.WriteError(w, http.StatusBadRequest, "professional_id and client_name are required")
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid start_time")
		return
	}
	if req.DurationMinutes < minDurationMinutes || req.DurationMinutes > maxDurationMinutes {
		httpx.WriteError(w, http.StatusBadRequest, "invalid duration_minutes")
		return
	}
	duration := time.Duration(req.DurationMinutes) * time.Minute
	start = start.UTC()

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := h.repo.LockProfessional(ctx, tx, req.ProfessionalID); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to lock calendar")
		return
	}

	// Re-run the slot computation under the lock: the requested start must be
	// one of the currently bookable candidates (inside working hours, clear of
	// blocked intervals and active appointments, in the future, grid-aligned).
	starts, err := h.slots.SlotsForDate(ctx, req.ProfessionalID, start, duration, time.Now().UTC())
	if err != nil {
		h.logger.Error("slot validation failed", "err", err, "professional_id", req.ProfessionalID)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to validate slot")
		return
	}
	if !containsTime(starts, start) {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "requested time is not an available slot")
		return
	}

	appt := &model.Appointment{
		ProfessionalID: req.ProfessionalID,
		ClientName:     req.ClientName,
		ClientContact:  req.ClientContact,
		StartTime:      start,
		EndTime:        start.Add(duration),
		Status:         model.StatusScheduled,
	}
	id, err := h.repo.Create(ctx, tx, appt)
	if err != nil {
		if storage.IsConflict(err) {
			httpx.WriteError(w, http.StatusConflict, "time slot already booked")
			return
		}
		h.logger.Error("appointment insert failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}

	payload, err := json.Marshal(map[string]any{
		"appointment_id":  id,
		"professional_id": appt.ProfessionalID,
		"client_name":     appt.ClientName,
		"start_time":      appt.StartTime.Format(time.RFC3339),
		"end_time":        appt.EndTime.Format(time.RFC3339),
	})
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to build event payload")
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   id,
		EventType:     "booking.appointment.booked.v1",
		Payload:       payload,
	}); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to commit")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, createBookingResponse{
		AppointmentID: id,
		Status:        string(model.StatusScheduled),
	})
}

type transitionRequest struct {
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

type transitionResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

// Transition returns a handler moving an appointment to the target status,
// enforcing the lifecycle table. Illegal moves leave the stored status
// unchanged and answer 409.
func (h *BookingHandler) Transition(to model.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req transitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		req.AppointmentID = strings.TrimSpace(req.AppointmentID)
		req.Reason = strings.TrimSpace(req.Reason)
		if req.AppointmentID == "" {
			httpx.WriteError(w, http.StatusBadRequest, "appointment_id required")
			return
		}

		ctx := r.Context()
		tx, err := h.repo.Begin(ctx)
		if err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "db error")
			return
		}
		defer func() { _ = tx.Rollback(ctx) }()

		appt, err := h.repo.GetForUpdate(ctx, tx, req.AppointmentID)
		if err != nil {
			if storage.IsNotFound(err) {
				httpx.WriteError(w, http.StatusNotFound, "appointment not found")
				return
			}
			httpx.WriteError(w, http.StatusInternalServerError, "failed to load appointment")
			return
		}

		if err := lifecycle.Check(appt.Status, to); err != nil {
			httpx.WriteError(w, http.StatusConflict, err.Error())
			return
		}

		if err := h.repo.UpdateStatus(ctx, tx, appt.ID, to, req.Reason); err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "failed to update status")
			return
		}

		payload, err := json.Marshal(map[string]any{
			"appointment_id":  appt.ID,
			"professional_id": appt.ProfessionalID,
			"client_name":     appt.ClientName,
			"start_time":      appt.StartTime.UTC().Format(time.RFC3339),
			"end_time":        appt.EndTime.UTC().Format(time.RFC3339),
			"from_status":     string(appt.Status),
			"to_status":       string(to),
			"reason":          req.Reason,
		})
		if err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "failed to build event payload")
			return
		}
		if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
			AggregateType: "appointment",
			AggregateID:   appt.ID,
			EventType:     lifecycle.EventType(to),
			Payload:       payload,
		}); err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "failed to write outbox event")
			return
		}

		if err := tx.Commit(ctx); err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "failed to commit")
			return
		}

		httpx.WriteJSON(w, http.StatusOK, transitionResponse{
			AppointmentID: appt.ID,
			Status:        string(to),
		})
	}
}

type listAppointmentItem struct {
	AppointmentID string `json:"appointment_id"`
	ClientName    string `json:"client_name"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	professionalID := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	if professionalID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "professional_id required")
		return
	}
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	appts, err := h.repo.ListByProfessional(r.Context(), professionalID, limit)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}

	items := make([]listAppointmentItem, 0, len(appts))
	for _, appt := range appts {
		item := listAppointmentItem{
			AppointmentID: appt.ID,
			ClientName:    appt.ClientName,
			StartTime:     appt.StartTime.UTC().Format(time.RFC3339),
			EndTime:       appt.EndTime.UTC().Format(time.RFC3339),
			Status:        string(appt.Status),
			CreatedAt:     appt.CreatedAt.UTC().Format(time.RFC3339),
		}
		if appt.CancelledAt != nil {
			item.CancelledAt = appt.CancelledAt.UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func parseDurationMinutes(raw string) (time.Duration, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 30 * time.Minute, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minDurationMinutes || n > maxDurationMinutes {
		return 0, false
	}
	return time.Duration(n) * time.Minute, true
}

func containsTime(ts []time.Time, t time.Time) bool {
	for _, s := range ts {
		if s.Equal(t) {
			return true
		}
	}
	return false
}
