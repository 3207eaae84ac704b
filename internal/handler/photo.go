package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/avikal/sahaay/internal/photo"
	"github.com/avikal/sahaay/internal/store"
)

const maxPhotoSize = 5 << 20 // 5 MB

type PhotoHandler struct {
	photoStore    *photo.Store
	seniorStore   *store.SeniorStore
	guardianStore *store.GuardianStore
	logger        *slog.Logger
}

func NewPhotoHandler(ps *photo.Store, ss *store.SeniorStore, gs *store.GuardianStore, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{photoStore: ps, seniorStore: ss, guardianStore: gs, logger: logger}
}

func (h *PhotoHandler) upload(w http.ResponseWriter, r *http.Request, kind string, ownerID int64, save func(int64, string) error) {
	if !h.photoStore.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "photo storage is not configured"})
		return
	}

	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "photo file is required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	key, err := h.photoStore.Upload(r.Context(), kind, ownerID, header.Filename, contentType, file)
	if err != nil {
		h.logger.Error("upload photo", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to upload photo"})
		return
	}

	if err := save(ownerID, key); err != nil {
		h.logger.Error("save photo key", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save photo"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"photo_key": key})
}

// UploadSeniorPhoto handles POST /api/seniors/{id}/photo
func (h *PhotoHandler) UploadSeniorPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	h.upload(w, r, "seniors", id, h.seniorStore.SetPhotoKey)
}

// UploadGuardianPhoto handles POST /api/guardians/{id}/photo
func (h *PhotoHandler) UploadGuardianPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	h.upload(w, r, "guardians", id, h.guardianStore.SetPhotoKey)
}

func (h *PhotoHandler) remove(w http.ResponseWriter, r *http.Request, ownerID int64, key string, save func(int64, string) error) {
	if key == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no photo set"})
		return
	}

	if h.photoStore.Enabled() {
		if err := h.photoStore.Delete(r.Context(), key); err != nil {
			h.logger.Warn("delete photo object", "key", key, "error", err)
		}
	}

	if err := save(ownerID, ""); err != nil {
		h.logger.Error("clear photo key", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to remove photo"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteSeniorPhoto handles DELETE /api/seniors/{id}/photo
func (h *PhotoHandler) DeleteSeniorPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	senior, err := h.seniorStore.GetByID(id)
	if err != nil || senior == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "senior not found"})
		return
	}
	h.remove(w, r, id, senior.PhotoKey, h.seniorStore.SetPhotoKey)
}

// DeleteGuardianPhoto handles DELETE /api/guardians/{id}/photo
func (h *PhotoHandler) DeleteGuardianPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	guardian, err := h.guardianStore.GetByID(id)
	if err != nil || guardian == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "guardian not found"})
		return
	}
	h.remove(w, r, id, guardian.PhotoKey, h.guardianStore.SetPhotoKey)
}

// Serve streams a stored photo by key. Keys are path-shaped, so the route
// uses a wildcard segment.
func (h *PhotoHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if !h.photoStore.Enabled() {
		http.Error(w, "photo storage is not configured", http.StatusServiceUnavailable)
		return
	}

	key := r.PathValue("key")
	if key == "" {
		http.Error(w, "missing key", http.StatusBadRequest)
		return
	}

	body, contentType, err := h.photoStore.Fetch(r.Context(), key)
	if err != nil {
		http.Error(w, "photo not found", http.StatusNotFound)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	io.Copy(w, body)
}
