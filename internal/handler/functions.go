package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avikal/sahaay/internal/model"
	"github.com/avikal/sahaay/internal/reminder"
	"github.com/avikal/sahaay/internal/store"
	"github.com/avikal/sahaay/internal/websocket"
)

const defaultSnoozeMinutes = 10

// FunctionsHandler serves the two scheduler-invoked endpoints.
type FunctionsHandler struct {
	logStore      *store.MedicationLogStore
	activityStore *store.ActivityStore
	scanner       *reminder.Scanner
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewFunctionsHandler(
	ls *store.MedicationLogStore,
	as *store.ActivityStore,
	scanner *reminder.Scanner,
	hub *websocket.Hub,
	logger *slog.Logger,
) *FunctionsHandler {
	return &FunctionsHandler{
		logStore:      ls,
		activityStore: as,
		scanner:       scanner,
		hub:           hub,
		logger:        logger,
	}
}

func (h *FunctionsHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type logMedicationRequest struct {
	Action          string `json:"action"`
	MedicationLogID *int64 `json:"medication_log_id"`
	MedicationID    *int64 `json:"medication_id"`
	SeniorID        *int64 `json:"senior_id"`
	SnoozeMinutes   *int   `json:"snooze_minutes"`
}

// LogMedication applies a caller-supplied transition to a medication log.
// Transitions are unconditional writes with no prior-state check.
func (h *FunctionsHandler) LogMedication(w http.ResponseWriter, r *http.Request) {
	var req logMedicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid JSON"})
		return
	}

	switch req.Action {
	case "taken":
		h.markTaken(w, req)
	case "snooze":
		h.snooze(w, req)
	case "create_pending":
		h.createPending(w, req)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   fmt.Sprintf("unknown action %q", req.Action),
		})
	}
}

func (h *FunctionsHandler) markTaken(w http.ResponseWriter, req logMedicationRequest) {
	if req.MedicationLogID == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "medication_log_id is required"})
		return
	}

	logEntry, err := h.logStore.GetByID(*req.MedicationLogID)
	if err != nil {
		h.logger.Error("log-medication taken lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to look up medication log"})
		return
	}
	if logEntry == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "medication log not found"})
		return
	}

	if err := h.logStore.MarkTaken(logEntry.ID, time.Now()); err != nil {
		h.logger.Error("log-medication mark taken", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to update medication log"})
		return
	}

	detail := fmt.Sprintf(`{"medication_log_id":%d,"medication_id":%d}`, logEntry.ID, logEntry.MedicationID)
	if _, err := h.activityStore.Append(logEntry.SeniorID, model.ActivityMedicationTaken, detail); err != nil {
		h.logger.Error("log-medication activity append", "error", err)
	}

	h.broadcast(websocket.NewMessage("medication_log", "updated", logEntry.ID, map[string]any{"status": model.LogStatusTaken}))

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "medication marked as taken"})
}

func (h *FunctionsHandler) snooze(w http.ResponseWriter, req logMedicationRequest) {
	if req.MedicationLogID == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "medication_log_id is required"})
		return
	}

	minutes := defaultSnoozeMinutes
	if req.SnoozeMinutes != nil && *req.SnoozeMinutes > 0 {
		minutes = *req.SnoozeMinutes
	}

	until := time.Now().Add(time.Duration(minutes) * time.Minute)
	if err := h.logStore.MarkSnoozed(*req.MedicationLogID, until); err != nil {
		h.logger.Error("log-medication snooze", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to update medication log"})
		return
	}

	h.broadcast(websocket.NewMessage("medication_log", "updated", *req.MedicationLogID, map[string]any{"status": model.LogStatusSnoozed}))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("reminder snoozed for %d minutes", minutes),
	})
}

func (h *FunctionsHandler) createPending(w http.ResponseWriter, req logMedicationRequest) {
	if req.MedicationID == nil || req.SeniorID == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "medication_id and senior_id are required"})
		return
	}

	logEntry, err := h.logStore.Create(*req.MedicationID, *req.SeniorID, time.Now(), model.LogStatusPending)
	if err != nil {
		h.logger.Error("log-medication create pending", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to create medication log"})
		return
	}

	h.broadcast(websocket.NewMessage("medication_log", "created", logEntry.ID, nil))

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "pending medication log created"})
}

// MedicationReminders triggers one scanner pass and returns its summary.
func (h *FunctionsHandler) MedicationReminders(w http.ResponseWriter, r *http.Request) {
	summary := h.scanner.RunOnce()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"medications_due": summary.MedicationsDue,
		"missed_updated":  summary.MissedUpdated,
		"checked_at":      summary.CheckedAt,
	})
}
