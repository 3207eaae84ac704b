package handler

import (
	"net/http"
	"strconv"

	"github.com/avikal/sahaay/internal/auth"
	"github.com/avikal/sahaay/internal/model"
	"github.com/avikal/sahaay/internal/store"
)

type NotificationHandler struct {
	notificationStore *store.NotificationStore
}

func NewNotificationHandler(ns *store.NotificationStore) *NotificationHandler {
	return &NotificationHandler{notificationStore: ns}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	notifs, err := h.notificationStore.ListForGuardian(auth.GuardianID(r.Context()), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list notifications"})
		return
	}
	if notifs == nil {
		notifs = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, notifs)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationStore.UnreadCount(auth.GuardianID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to count notifications"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	notif, err := h.notificationStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get notification"})
		return
	}
	if notif == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
		return
	}

	if err := h.notificationStore.MarkRead(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to mark notification read"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.notificationStore.MarkAllRead(auth.GuardianID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to mark notifications read"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}
