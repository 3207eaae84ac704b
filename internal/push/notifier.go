package push

import (
	"errors"
	"log/slog"

	"github.com/avikal/sahaay/internal/email"
	"github.com/avikal/sahaay/internal/model"
	"github.com/avikal/sahaay/internal/store"
	"github.com/avikal/sahaay/internal/websocket"
)

// Notifier fans a stored notification out to every delivery channel: web push
// to the guardian's devices, a realtime broadcast, and email for high-urgency
// notifications.
type Notifier struct {
	service   *Service
	push      *store.PushStore
	guardians *store.GuardianStore
	email     *email.Client
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewNotifier(svc *Service, pushStore *store.PushStore, guardianStore *store.GuardianStore, emailClient *email.Client, hub *websocket.Hub, logger *slog.Logger) *Notifier {
	return &Notifier{
		service:   svc,
		push:      pushStore,
		guardians: guardianStore,
		email:     emailClient,
		hub:       hub,
		logger:    logger,
	}
}

func (n *Notifier) Notify(notif *model.Notification) {
	if n.hub != nil {
		n.hub.Broadcast(websocket.NewMessage("notification", "created", notif.ID, map[string]any{
			"notification_type": notif.Type,
			"urgency":           notif.Urgency,
		}))
	}

	if notif.GuardianID == nil {
		return
	}
	guardianID := *notif.GuardianID

	n.sendPush(guardianID, notif)

	if notif.Urgency == model.UrgencyHigh {
		n.sendEmail(guardianID, notif)
	}
}

func (n *Notifier) sendPush(guardianID int64, notif *model.Notification) {
	if n.service == nil {
		return
	}

	enabled, err := n.push.IsPreferenceEnabled(guardianID, notif.Type)
	if err != nil {
		n.logger.Error("check notification preference", "guardian_id", guardianID, "error", err)
		return
	}
	if !enabled {
		return
	}

	subs, err := n.push.ListByGuardian(guardianID)
	if err != nil {
		n.logger.Error("list push subscriptions", "guardian_id", guardianID, "error", err)
		return
	}

	payload := Payload{
		Title:   notif.Title,
		Body:    notif.Message,
		URL:     "/notifications",
		Tag:     notif.Type,
		Urgency: notif.Urgency,
	}

	for _, sub := range subs {
		if err := n.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				n.push.DeleteByEndpoint(sub.Endpoint)
			} else {
				n.logger.Error("send push", "guardian_id", guardianID, "error", err)
			}
		}
	}
}

func (n *Notifier) sendEmail(guardianID int64, notif *model.Notification) {
	if n.email == nil || !n.email.Configured() {
		return
	}

	guardian, err := n.guardians.GetByID(guardianID)
	if err != nil || guardian == nil {
		n.logger.Error("load guardian for alert email", "guardian_id", guardianID, "error", err)
		return
	}

	if err := n.email.SendAlert(guardian.Email, notif.Title, notif.Message); err != nil {
		n.logger.Error("send alert email", "guardian_id", guardianID, "error", err)
	}
}
