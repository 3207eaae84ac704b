package handler

import (
	"net/http"
	"time"

	"github.com/avikal/sahaay/internal/auth"
	"github.com/avikal/sahaay/internal/model"
	"github.com/avikal/sahaay/internal/reminder"
	"github.com/avikal/sahaay/internal/store"
)

// ScheduleHandler serves the daily medication schedule.
type ScheduleHandler struct {
	logStore *store.MedicationLogStore
}

func NewScheduleHandler(ls *store.MedicationLogStore) *ScheduleHandler {
	return &ScheduleHandler{logStore: ls}
}

// dayBounds returns the calendar-day bounds for the given date in the app's
// fixed timezone. An empty date means today.
func dayBounds(date string) (time.Time, time.Time, error) {
	zone := reminder.Zone()
	var day time.Time
	if date == "" {
		day = time.Now().In(zone)
	} else {
		parsed, err := time.ParseInLocation("2006-01-02", date, zone)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		day = parsed
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, zone)
	end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, zone)
	return start, end, nil
}

func (h *ScheduleHandler) list(w http.ResponseWriter, seniorID int64, date string) {
	start, end, err := dayBounds(date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	entries, err := h.logStore.ListBySeniorDay(seniorID, start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list schedule"})
		return
	}
	if entries == nil {
		entries = []model.ScheduleEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ForSenior serves a guardian's view of one senior's schedule.
func (h *ScheduleHandler) ForSenior(w http.ResponseWriter, r *http.Request) {
	seniorID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	h.list(w, seniorID, r.URL.Query().Get("date"))
}

// Mine serves the authenticated senior's own schedule for today.
func (h *ScheduleHandler) Mine(w http.ResponseWriter, r *http.Request) {
	seniorID := auth.SeniorID(r.Context())
	if seniorID == 0 {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "senior session required"})
		return
	}
	h.list(w, seniorID, r.URL.Query().Get("date"))
}
