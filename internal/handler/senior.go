package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/avikal/sahaay/internal/auth"
	"github.com/avikal/sahaay/internal/model"
	"github.com/avikal/sahaay/internal/store"
	"github.com/avikal/sahaay/internal/websocket"
)

type SeniorHandler struct {
	seniorStore   *store.SeniorStore
	guardianStore *store.GuardianStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewSeniorHandler(ss *store.SeniorStore, gs *store.GuardianStore, hub *websocket.Hub, logger *slog.Logger) *SeniorHandler {
	return &SeniorHandler{seniorStore: ss, guardianStore: gs, hub: hub, logger: logger}
}

func (h *SeniorHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// ownsSenior reports whether the requesting guardian is linked to the senior.
func (h *SeniorHandler) ownsSenior(r *http.Request, seniorID int64) (bool, error) {
	guardianID := auth.GuardianID(r.Context())
	if guardianID == 0 {
		return false, nil
	}
	guardians, err := h.guardianStore.ListForSenior(seniorID)
	if err != nil {
		return false, err
	}
	for _, g := range guardians {
		if g.ID == guardianID {
			return true, nil
		}
	}
	return false, nil
}

type seniorRequest struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth"`
	Phone       string `json:"phone"`
}

func (h *SeniorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req seniorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	senior, err := h.seniorStore.Create(req.Name, req.DateOfBirth, req.Phone)
	if err != nil {
		h.logger.Error("create senior", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create senior"})
		return
	}

	if _, err := h.guardianStore.LinkSenior(senior.ID, auth.GuardianID(r.Context()), false); err != nil {
		h.logger.Error("link senior", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to link senior"})
		return
	}

	h.broadcast(websocket.NewMessage("senior", "created", senior.ID, nil))

	writeJSON(w, http.StatusCreated, senior)
}

func (h *SeniorHandler) List(w http.ResponseWriter, r *http.Request) {
	seniors, err := h.seniorStore.ListForGuardian(auth.GuardianID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list seniors"})
		return
	}
	if seniors == nil {
		seniors = []model.Senior{}
	}
	writeJSON(w, http.StatusOK, seniors)
}

func (h *SeniorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ok, err := h.ownsSenior(r, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check access"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "senior not found"})
		return
	}

	senior, err := h.seniorStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get senior"})
		return
	}
	if senior == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "senior not found"})
		return
	}
	writeJSON(w, http.StatusOK, senior)
}

func (h *SeniorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ok, err := h.ownsSenior(r, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check access"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "senior not found"})
		return
	}

	var req seniorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	senior, err := h.seniorStore.Update(id, req.Name, req.DateOfBirth, req.Phone)
	if err != nil {
		h.logger.Error("update senior", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update senior"})
		return
	}

	h.broadcast(websocket.NewMessage("senior", "updated", id, nil))

	writeJSON(w, http.StatusOK, senior)
}

// Delete removes a senior and all dependent rows in one transaction.
func (h *SeniorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ok, err := h.ownsSenior(r, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check access"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "senior not found"})
		return
	}

	if err := h.seniorStore.Delete(id); err != nil {
		h.logger.Error("delete senior", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete senior"})
		return
	}

	h.broadcast(websocket.NewMessage("senior", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

// SetPIN sets or replaces the senior's 4-digit family PIN.
func (h *SeniorHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ok, err := h.ownsSenior(r, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check access"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "senior not found"})
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if !auth.ValidPIN(req.PIN) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "PIN must be exactly 4 digits"})
		return
	}

	hashed, err := hashPIN(req.PIN)
	if err != nil {
		h.logger.Error("hash pin", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set PIN"})
		return
	}

	if err := h.seniorStore.SetPIN(id, hashed); err != nil {
		h.logger.Error("set pin", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set PIN"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SeniorHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	ok, err := h.ownsSenior(r, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check access"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "senior not found"})
		return
	}

	if err := h.seniorStore.ClearPIN(id); err != nil {
		h.logger.Error("clear pin", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to clear PIN"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Contacts returns the linked guardians for the authenticated senior's
// family-contact screen.
func (h *SeniorHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	seniorID := auth.SeniorID(r.Context())
	if seniorID == 0 {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "senior session required"})
		return
	}

	guardians, err := h.guardianStore.ListForSenior(seniorID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list contacts"})
		return
	}
	if guardians == nil {
		guardians = []model.Guardian{}
	}
	writeJSON(w, http.StatusOK, guardians)
}
