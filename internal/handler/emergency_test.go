package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avikal/sahaay/internal/auth"
	"github.com/avikal/sahaay/internal/database"
	"github.com/avikal/sahaay/internal/model"
	"github.com/avikal/sahaay/internal/store"
)

type captureNotifier struct {
	delivered []*model.Notification
}

func (c *captureNotifier) Notify(n *model.Notification) {
	c.delivered = append(c.delivered, n)
}

func setupEmergency(t *testing.T) (*EmergencyHandler, *captureNotifier, *store.NotificationStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	gs := store.NewGuardianStore(db)
	ss := store.NewSeniorStore(db)
	ns := store.NewNotificationStore(db)
	as := store.NewActivityStore(db)

	senior, _ := ss.Create("Kamala", "", "")
	g1, _ := gs.Create("Avikal", "avikal@example.com", "9876543210")
	g2, _ := gs.Create("Meera", "meera@example.com", "9876543211")
	gs.LinkSenior(senior.ID, g1.ID, true)
	gs.LinkSenior(senior.ID, g2.ID, false)

	notifier := &captureNotifier{}
	h := NewEmergencyHandler(ss, gs, ns, as, notifier, logger)
	return h, notifier, ns, senior.ID
}

func TestEmergencyNotifiesAllLinkedGuardians(t *testing.T) {
	h, notifier, _, seniorID := setupEmergency(t)

	req := httptest.NewRequest("POST", "/api/emergency", strings.NewReader(`{}`))
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{SeniorID: seniorID, Role: auth.RoleSenior}))
	rec := httptest.NewRecorder()
	h.Trigger(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Success           bool `json:"success"`
		GuardiansNotified int  `json:"guardians_notified"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.GuardiansNotified != 2 {
		t.Fatalf("got success=%v notified=%d, want success=true notified=2", resp.Success, resp.GuardiansNotified)
	}

	if len(notifier.delivered) != 2 {
		t.Fatalf("delivered %d notifications, want 2", len(notifier.delivered))
	}
	for _, n := range notifier.delivered {
		if n.Urgency != model.UrgencyHigh {
			t.Errorf("urgency = %d, want %d", n.Urgency, model.UrgencyHigh)
		}
		if n.Type != model.NotifTypeEmergency {
			t.Errorf("type = %q, want %q", n.Type, model.NotifTypeEmergency)
		}
		if !strings.Contains(n.Title, "Kamala") {
			t.Errorf("title %q does not name the senior", n.Title)
		}
	}
}

func TestEmergencyCustomMessage(t *testing.T) {
	h, notifier, _, seniorID := setupEmergency(t)

	req := httptest.NewRequest("POST", "/api/emergency", strings.NewReader(`{"message":"I fell in the kitchen"}`))
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{SeniorID: seniorID, Role: auth.RoleSenior}))
	rec := httptest.NewRecorder()
	h.Trigger(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(notifier.delivered) == 0 || notifier.delivered[0].Message != "I fell in the kitchen" {
		t.Fatalf("custom message not carried through: %+v", notifier.delivered)
	}
}

func TestEmergencyRequiresSeniorSession(t *testing.T) {
	h, _, _, _ := setupEmergency(t)

	req := httptest.NewRequest("POST", "/api/emergency", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Trigger(rec, req)

	if rec.Code != 403 {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
