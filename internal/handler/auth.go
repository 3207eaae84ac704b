package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/avikal/sahaay/internal/auth"
	"github.com/avikal/sahaay/internal/email"
	"github.com/avikal/sahaay/internal/store"
)

const (
	sessionCookieName = "sahaay_session"
	maxCodeAttempts   = 5
)

type AuthHandler struct {
	guardianStore  *store.GuardianStore
	seniorStore    *store.SeniorStore
	sessionStore   *store.SessionStore
	loginCodeStore *store.LoginCodeStore
	validator      *auth.Validator
	emailClient    *email.Client
	logger         *slog.Logger
}

func NewAuthHandler(
	gs *store.GuardianStore,
	ss *store.SeniorStore,
	sess *store.SessionStore,
	lcs *store.LoginCodeStore,
	validator *auth.Validator,
	ec *email.Client,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		guardianStore:  gs,
		seniorStore:    ss,
		sessionStore:   sess,
		loginCodeStore: lcs,
		validator:      validator,
		emailClient:    ec,
		logger:         logger,
	}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Register creates a guardian account and emails a login code. An optional
// first senior profile can be created in the same call.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Phone  string `json:"phone"`
		Senior *struct {
			Name        string `json:"name"`
			DateOfBirth string `json:"date_of_birth"`
			Phone       string `json:"phone"`
		} `json:"senior"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and email are required"})
		return
	}

	existing, err := h.guardianStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("register lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "an account with this email already exists"})
		return
	}

	guardian, err := h.guardianStore.Create(req.Name, req.Email, strings.TrimSpace(req.Phone))
	if err != nil {
		h.logger.Error("register create guardian", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
		return
	}

	if req.Senior != nil && strings.TrimSpace(req.Senior.Name) != "" {
		senior, err := h.seniorStore.Create(strings.TrimSpace(req.Senior.Name), req.Senior.DateOfBirth, req.Senior.Phone)
		if err != nil {
			h.logger.Error("register create senior", "error", err)
		} else if _, err := h.guardianStore.LinkSenior(senior.ID, guardian.ID, true); err != nil {
			h.logger.Error("register link senior", "error", err)
		}
	}

	h.sendCode(req.Email, "register")
	writeJSON(w, http.StatusCreated, map[string]any{
		"guardian": guardian,
		"message":  "check your email for a login code",
	})
}

// Login emails a 6-digit code to an existing guardian. The response is the
// same whether or not the account exists, to prevent enumeration.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}

	guardian, err := h.guardianStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
	}
	if guardian != nil {
		h.sendCode(req.Email, "login")
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "check your email for a login code"})
}

func (h *AuthHandler) sendCode(emailAddr, purpose string) {
	lc, err := h.loginCodeStore.Create(emailAddr, purpose)
	if err != nil {
		h.logger.Error("create login code", "error", err)
		return
	}
	if err := h.emailClient.SendLoginCode(emailAddr, lc.Code, purpose); err != nil {
		h.logger.Error("send login code", "email", emailAddr, "error", err)
	}
}

// Verify exchanges email + code for a guardian session.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Code = strings.TrimSpace(req.Code)
	if req.Email == "" || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and code are required"})
		return
	}

	lc, err := h.loginCodeStore.GetLatestByEmail(req.Email)
	if err != nil {
		h.logger.Error("verify lookup code", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "verification failed"})
		return
	}
	if lc == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired code"})
		return
	}

	if lc.Code != req.Code {
		attempts, err := h.loginCodeStore.IncrementAttempts(lc.ID)
		if err != nil {
			h.logger.Error("verify increment attempts", "error", err)
		}
		if attempts >= maxCodeAttempts {
			h.loginCodeStore.MarkUsed(lc.ID)
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired code"})
		return
	}

	if err := h.loginCodeStore.MarkUsed(lc.ID); err != nil {
		h.logger.Error("verify mark used", "error", err)
	}

	guardian, err := h.guardianStore.GetByEmail(req.Email)
	if err != nil || guardian == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired code"})
		return
	}

	sess, err := h.sessionStore.CreateForGuardian(guardian.ID)
	if err != nil {
		h.logger.Error("verify create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "verification failed"})
		return
	}

	h.setSessionCookie(w, sess.Token, 90*24*3600)
	writeJSON(w, http.StatusOK, map[string]any{
		"guardian": guardian,
		"token":    sess.Token,
	})
}

// SeniorLogin authenticates a senior with guardian phone + family PIN.
func (h *AuthHandler) SeniorLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		PIN   string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	profile, err := h.validator.Validate(req.Phone, req.PIN)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid PIN/credentials"})
			return
		}
		h.logger.Error("senior login", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}

	sess, err := h.sessionStore.CreateForSenior(profile.SeniorID)
	if err != nil {
		h.logger.Error("senior login create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "login failed"})
		return
	}

	h.setSessionCookie(w, sess.Token, 365*24*3600)
	writeJSON(w, http.StatusOK, map[string]any{
		"profile": profile,
		"token":   sess.Token,
	})
}

// Logout deletes the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if ok {
		if err := h.sessionStore.Delete(ac.SessionID); err != nil {
			h.logger.Error("logout delete session", "error", err)
		}
	}
	h.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	switch ac.Role {
	case auth.RoleGuardian:
		guardian, err := h.guardianStore.GetByID(ac.GuardianID)
		if err != nil || guardian == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "guardian not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"role": ac.Role, "guardian": guardian})
	case auth.RoleSenior:
		senior, err := h.seniorStore.GetByID(ac.SeniorID)
		if err != nil || senior == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "senior not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"role": ac.Role, "senior": senior})
	default:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
	}
}

// hashPIN is shared with the senior handler's PIN endpoints.
func hashPIN(pin string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
