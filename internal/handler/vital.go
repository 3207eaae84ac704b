package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avikal/sahaay/internal/auth"
	"github.com/avikal/sahaay/internal/model"
	"github.com/avikal/sahaay/internal/store"
	"github.com/avikal/sahaay/internal/websocket"
)

type VitalHandler struct {
	vitalStore    *store.VitalStore
	activityStore *store.ActivityStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewVitalHandler(vs *store.VitalStore, as *store.ActivityStore, hub *websocket.Hub, logger *slog.Logger) *VitalHandler {
	return &VitalHandler{vitalStore: vs, activityStore: as, hub: hub, logger: logger}
}

type vitalRequest struct {
	SeniorID   int64  `json:"senior_id"`
	VitalType  string `json:"vital_type"`
	Value      string `json:"value"`
	Unit       string `json:"unit"`
	RecordedAt string `json:"recorded_at"`
}

func (h *VitalHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req vitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	// A senior session records against its own profile.
	if seniorID := auth.SeniorID(r.Context()); seniorID != 0 {
		req.SeniorID = seniorID
	}
	if req.SeniorID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "senior_id is required"})
		return
	}

	req.VitalType = strings.TrimSpace(req.VitalType)
	req.Value = strings.TrimSpace(req.Value)
	if req.VitalType == "" || req.Value == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "vital_type and value are required"})
		return
	}

	recordedAt := time.Now()
	if req.RecordedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.RecordedAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "recorded_at must be RFC3339"})
			return
		}
		recordedAt = parsed
	}

	vital, err := h.vitalStore.Record(req.SeniorID, req.VitalType, req.Value, req.Unit, recordedAt)
	if err != nil {
		h.logger.Error("record vital", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record vital"})
		return
	}

	detail, _ := json.Marshal(map[string]string{"vital_type": req.VitalType, "value": req.Value})
	if _, err := h.activityStore.Append(req.SeniorID, model.ActivityVitalRecorded, string(detail)); err != nil {
		h.logger.Error("vital activity append", "error", err)
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("vital", "created", vital.ID, nil))
	}

	writeJSON(w, http.StatusCreated, vital)
}

func (h *VitalHandler) ListBySenior(w http.ResponseWriter, r *http.Request) {
	seniorID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	vitals, err := h.vitalStore.ListBySenior(seniorID, r.URL.Query().Get("type"), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list vitals"})
		return
	}
	if vitals == nil {
		vitals = []model.HealthVital{}
	}
	writeJSON(w, http.StatusOK, vitals)
}

// Latest returns the most recent reading per vital type.
func (h *VitalHandler) Latest(w http.ResponseWriter, r *http.Request) {
	seniorID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	vitals, err := h.vitalStore.Latest(seniorID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list vitals"})
		return
	}
	if vitals == nil {
		vitals = []model.HealthVital{}
	}
	writeJSON(w, http.StatusOK, vitals)
}
