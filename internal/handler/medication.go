package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/avikal/sahaay/internal/model"
	"github.com/avikal/sahaay/internal/store"
	"github.com/avikal/sahaay/internal/websocket"
)

type MedicationHandler struct {
	medicationStore *store.MedicationStore
	seniorStore     *store.SeniorStore
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewMedicationHandler(ms *store.MedicationStore, ss *store.SeniorStore, hub *websocket.Hub, logger *slog.Logger) *MedicationHandler {
	return &MedicationHandler{medicationStore: ms, seniorStore: ss, hub: hub, logger: logger}
}

func (h *MedicationHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type medicationRequest struct {
	SeniorID     int64    `json:"senior_id"`
	Name         string   `json:"name"`
	Dosage       string   `json:"dosage"`
	Times        []string `json:"times"`
	Instructions string   `json:"instructions"`
}

// validTimeOfDay checks an HH:MM clock time string.
func validTimeOfDay(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	hh := s[:2]
	mm := s[3:]
	if !isDigits(hh) || !isDigits(mm) {
		return false
	}
	h := (hh[0]-'0')*10 + (hh[1] - '0')
	m := (mm[0]-'0')*10 + (mm[1] - '0')
	return h < 24 && m < 60
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func validateTimes(times []string) string {
	if len(times) == 0 {
		return "at least one time is required"
	}
	for _, t := range times {
		if !validTimeOfDay(t) {
			return "times must be in HH:MM format"
		}
	}
	return ""
}

func (h *MedicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if msg := validateTimes(req.Times); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	senior, err := h.seniorStore.GetByID(req.SeniorID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check senior"})
		return
	}
	if senior == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "senior not found"})
		return
	}

	med, err := h.medicationStore.Create(req.SeniorID, req.Name, req.Dosage, req.Times, req.Instructions)
	if err != nil {
		h.logger.Error("create medication", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create medication"})
		return
	}

	h.broadcast(websocket.NewMessage("medication", "created", med.ID, nil))

	writeJSON(w, http.StatusCreated, med)
}

func (h *MedicationHandler) ListBySenior(w http.ResponseWriter, r *http.Request) {
	seniorID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	meds, err := h.medicationStore.ListBySenior(seniorID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list medications"})
		return
	}
	if meds == nil {
		meds = []model.Medication{}
	}
	writeJSON(w, http.StatusOK, meds)
}

func (h *MedicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.medicationStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get medication"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "medication not found"})
		return
	}

	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if msg := validateTimes(req.Times); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	med, err := h.medicationStore.Update(id, req.Name, req.Dosage, req.Times, req.Instructions)
	if err != nil {
		h.logger.Error("update medication", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update medication"})
		return
	}

	h.broadcast(websocket.NewMessage("medication", "updated", id, nil))

	writeJSON(w, http.StatusOK, med)
}

// Delete clears the active flag; logs and history are retained.
func (h *MedicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.medicationStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get medication"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "medication not found"})
		return
	}

	if err := h.medicationStore.Deactivate(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete medication"})
		return
	}

	h.broadcast(websocket.NewMessage("medication", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}
