package handler

import (
	"net/http"
	"strconv"

	"github.com/avikal/sahaay/internal/model"
	"github.com/avikal/sahaay/internal/store"
)

type ActivityHandler struct {
	activityStore *store.ActivityStore
}

func NewActivityHandler(as *store.ActivityStore) *ActivityHandler {
	return &ActivityHandler{activityStore: as}
}

func (h *ActivityHandler) ListBySenior(w http.ResponseWriter, r *http.Request) {
	seniorID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.activityStore.ListBySenior(seniorID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list activity"})
		return
	}
	if entries == nil {
		entries = []model.ActivityLog{}
	}
	writeJSON(w, http.StatusOK, entries)
}
