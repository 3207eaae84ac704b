package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/avikal/sahaay/internal/auth"
	"github.com/avikal/sahaay/internal/model"
	"github.com/avikal/sahaay/internal/store"
)

// notifySink delivers a created notification to its out-of-band channels
// (push, email, websocket).
type notifySink interface {
	Notify(*model.Notification)
}

type EmergencyHandler struct {
	seniorStore       *store.SeniorStore
	guardianStore     *store.GuardianStore
	notificationStore *store.NotificationStore
	activityStore     *store.ActivityStore
	notifier          notifySink
	logger            *slog.Logger
}

func NewEmergencyHandler(
	ss *store.SeniorStore,
	gs *store.GuardianStore,
	ns *store.NotificationStore,
	as *store.ActivityStore,
	notifier notifySink,
	logger *slog.Logger,
) *EmergencyHandler {
	return &EmergencyHandler{
		seniorStore:       ss,
		guardianStore:     gs,
		notificationStore: ns,
		activityStore:     as,
		notifier:          notifier,
		logger:            logger,
	}
}

// Trigger raises an emergency alert to every guardian linked to the senior.
func (h *EmergencyHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	seniorID := auth.SeniorID(r.Context())
	if seniorID == 0 {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "senior session required"})
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	senior, err := h.seniorStore.GetByID(seniorID)
	if err != nil || senior == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to look up profile"})
		return
	}

	guardians, err := h.guardianStore.ListForSenior(seniorID)
	if err != nil {
		h.logger.Error("emergency list guardians", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to send alert"})
		return
	}

	title := fmt.Sprintf("🆘 Emergency: %s needs help", senior.Name)
	message := req.Message
	if message == "" {
		message = fmt.Sprintf("%s pressed the emergency help button.", senior.Name)
	}

	notified := 0
	for _, g := range guardians {
		gid := g.ID
		notif, err := h.notificationStore.Create(model.NotifTypeEmergency, title, message, &seniorID, &gid, model.UrgencyHigh)
		if err != nil {
			h.logger.Error("emergency create notification", "guardian_id", gid, "error", err)
			continue
		}
		if h.notifier != nil {
			h.notifier.Notify(notif)
		}
		notified++
	}

	detail, _ := json.Marshal(map[string]string{"message": message})
	if _, err := h.activityStore.Append(seniorID, model.ActivityEmergency, string(detail)); err != nil {
		h.logger.Error("emergency activity append", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"guardians_notified": notified,
	})
}
