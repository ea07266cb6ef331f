package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lucasavelar/agendly/libs/httpx"
	"github.com/lucasavelar/agendly/services/booking-service/internal/model"
	"github.com/lucasavelar/agendly/services/booking-service/internal/storage"
)

// ScheduleHandler is the admin surface for the working-hours and
// blocked-interval registries.
type ScheduleHandler struct {
	repo   *storage.ScheduleRepository
	logger *slog.Logger
}

func NewScheduleHandler(repo *storage.ScheduleRepository, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{repo: repo, logger: logger}
}

type workingHoursRequest struct {
	ProfessionalID string `json:"professional_id"`
	Weekday        int    `json:"weekday"`
	Start          string `json:"start"` // HH:MM
	End            string `json:"end"`   // HH:MM
	Active         bool   `json:"active"`
}

type workingHoursItem struct {
	Weekday int    `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Active  bool   `json:"active"`
}

func (h *ScheduleHandler) Hours(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		h.upsertHours(w, r)
	case http.MethodGet:
		h.listHours(w, r)
	default:
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *ScheduleHandler) upsertHours(w http.ResponseWriter, r *http.Request) {
	var req workingHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	if req.ProfessionalID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "professional_id required")
		return
	}
	startMin, err := parseClockMinutes(req.Start)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid start (want HH:MM)")
		return
	}
	endMin, err := parseClockMinutes(req.End)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid end (want HH:MM)")
		return
	}

	wh := model.WorkingHours{
		ProfessionalID: req.ProfessionalID,
		Weekday:        req.Weekday,
		StartMinute:    startMin,
		EndMinute:      endMin,
		Active:         req.Active,
	}
	if err := h.repo.UpsertWorkingHours(r.Context(), wh); err != nil {
		if errors.Is(err, model.ErrInvalidWeekday) || errors.Is(err, model.ErrInvalidInterval) {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("working hours upsert failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to save working hours")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ScheduleHandler) listHours(w http.ResponseWriter, r *http.Request) {
	professionalID := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	if professionalID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "professional_id required")
		return
	}

	hours, err := h.repo.ListWorkingHours(r.Context(), professionalID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list working hours")
		return
	}

	items := make([]workingHoursItem, 0, len(hours))
	for _, wh := range hours {
		items = append(items, workingHoursItem{
			Weekday: wh.Weekday,
			Start:   formatClockMinutes(wh.StartMinute),
			End:     formatClockMinutes(wh.EndMinute),
			Active:  wh.Active,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

type blockRequest struct {
	ProfessionalID string `json:"professional_id"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Reason         string `json:"reason"`
}

type blockItem struct {
	BlockID   string `json:"block_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason,omitempty"`
}

func (h *ScheduleHandler) Blocks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createBlock(w, r)
	case http.MethodGet:
		h.listBlocks(w, r)
	default:
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *ScheduleHandler) createBlock(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	if req.ProfessionalID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "professional_id required")
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid start_time")
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid end_time")
		return
	}

	id, err := h.repo.CreateBlockedInterval(r.Context(), model.BlockedInterval{
		ProfessionalID: req.ProfessionalID,
		StartTime:      start.UTC(),
		EndTime:        end.UTC(),
		Reason:         strings.TrimSpace(req.Reason),
	})
	if err != nil {
		if errors.Is(err, model.ErrInvalidInterval) {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("blocked interval insert failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to create blocked interval")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"block_id": id})
}

func (h *ScheduleHandler) listBlocks(w http.ResponseWriter, r *http.Request) {
	professionalID := strings.TrimSpace(r.URL.Query().Get("professional_id"))
	if professionalID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "professional_id required")
		return
	}

	from := time.Now().UTC()
	to := from.AddDate(0, 0, 30)
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid from")
			return
		}
		from = t.UTC()
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid to")
			return
		}
		to = t.UTC()
	}

	blocks, err := h.repo.ListBlockedIntervals(r.Context(), professionalID, from, to)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list blocked intervals")
		return
	}

	items := make([]blockItem, 0, len(blocks))
	for _, b := range blocks {
		items = append(items, blockItem{
			BlockID:   b.ID,
			StartTime: b.StartTime.UTC().Format(time.RFC3339),
			EndTime:   b.EndTime.UTC().Format(time.RFC3339),
			Reason:    b.Reason,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

type deleteBlockRequest struct {
	ProfessionalID string `json:"professional_id"`
	BlockID        string `json:"block_id"`
}

func (h *ScheduleHandler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req deleteBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.ProfessionalID = strings.TrimSpace(req.ProfessionalID)
	req.BlockID = strings.TrimSpace(req.BlockID)
	if req.ProfessionalID == "" || req.BlockID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "professional_id and block_id required")
		return
	}

	deleted, err := h.repo.DeleteBlockedInterval(r.Context(), req.ProfessionalID, req.BlockID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "failed to delete blocked interval")
		return
	}
	if !deleted {
		httpx.WriteError(w, http.StatusNotFound, "blocked interval not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseClockMinutes(raw string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClockMinutes(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}
