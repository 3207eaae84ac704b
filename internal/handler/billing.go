package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/avikal/sahaay/internal/auth"
	"github.com/avikal/sahaay/internal/billing"
	"github.com/avikal/sahaay/internal/model"
	"github.com/avikal/sahaay/internal/store"
)

type BillingHandler struct {
	stripeClient      *billing.Client
	guardianStore     *store.GuardianStore
	subscriptionStore *store.SubscriptionStore
	baseURL           string
	logger            *slog.Logger
}

func NewBillingHandler(
	sc *billing.Client,
	gs *store.GuardianStore,
	ss *store.SubscriptionStore,
	baseURL string,
	logger *slog.Logger,
) *BillingHandler {
	return &BillingHandler{
		stripeClient:      sc,
		guardianStore:     gs,
		subscriptionStore: ss,
		baseURL:           baseURL,
		logger:            logger,
	}
}

// CreateCheckoutSession starts a Sahaay Plus checkout and returns the URL.
func (h *BillingHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if !h.stripeClient.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "billing is not configured"})
		return
	}

	guardianID := auth.GuardianID(r.Context())
	guardian, err := h.guardianStore.GetByID(guardianID)
	if err != nil || guardian == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "guardian not found"})
		return
	}

	var req struct {
		Interval string `json:"interval"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if req.Interval == "" {
		req.Interval = "monthly"
	}

	sub, err := h.subscriptionStore.GetByGuardian(guardianID)
	if err != nil {
		h.logger.Error("checkout get subscription", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start checkout"})
		return
	}

	customerID := ""
	if sub != nil {
		customerID = sub.StripeCustomerID
	}
	if customerID == "" {
		customerID, err = h.stripeClient.CreateCustomer(guardian.Email, guardian.Name)
		if err != nil {
			h.logger.Error("checkout create customer", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start checkout"})
			return
		}
		if _, err := h.subscriptionStore.Upsert(guardianID, customerID, "", "plus", model.SubStatusInactive, nil); err != nil {
			h.logger.Error("checkout save customer id", "error", err)
		}
	}

	priceID := h.stripeClient.PriceIDForInterval(req.Interval)
	url, err := h.stripeClient.CreateCheckoutSession(customerID, priceID)
	if err != nil {
		h.logger.Error("checkout create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start checkout"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// BillingPortal returns a Stripe billing portal URL for subscription management.
func (h *BillingHandler) BillingPortal(w http.ResponseWriter, r *http.Request) {
	if !h.stripeClient.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "billing is not configured"})
		return
	}

	sub, err := h.subscriptionStore.GetByGuardian(auth.GuardianID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to look up subscription"})
		return
	}
	if sub == nil || sub.StripeCustomerID == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no billing account"})
		return
	}

	url, err := h.stripeClient.CreateBillingPortalSession(sub.StripeCustomerID, h.baseURL+"/settings")
	if err != nil {
		h.logger.Error("billing portal", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to open billing portal"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// CurrentSubscription returns the guardian's plan subscription, defaulting to
// an inactive free-tier record.
func (h *BillingHandler) CurrentSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subscriptionStore.GetByGuardian(auth.GuardianID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to look up subscription"})
		return
	}
	if sub == nil {
		writeJSON(w, http.StatusOK, map[string]string{"plan": "free", "status": model.SubStatusInactive})
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// HandleStripeWebhook applies Stripe subscription lifecycle events.
func (h *BillingHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	event, err := h.stripeClient.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(event)
	case "invoice.paid":
		h.updateStatusFromInvoice(event, model.SubStatusActive)
	case "invoice.payment_failed":
		h.updateStatusFromInvoice(event, model.SubStatusPastDue)
	case "customer.subscription.updated":
		h.handleSubscriptionUpdated(event)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(event)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *BillingHandler) handleCheckoutCompleted(event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("webhook unmarshal checkout session", "error", err)
		return
	}
	if sess.Customer == nil {
		h.logger.Error("webhook checkout session missing customer")
		return
	}

	sub, err := h.subscriptionStore.GetByStripeCustomer(sess.Customer.ID)
	if err != nil || sub == nil {
		h.logger.Error("webhook subscription lookup", "customer", sess.Customer.ID, "error", err)
		return
	}

	subscriptionID := ""
	if sess.Subscription != nil {
		subscriptionID = sess.Subscription.ID
	}
	if _, err := h.subscriptionStore.Upsert(sub.GuardianID, sess.Customer.ID, subscriptionID, "plus", model.SubStatusActive, nil); err != nil {
		h.logger.Error("webhook activate subscription", "error", err)
	}
}

func (h *BillingHandler) updateStatusFromInvoice(event stripe.Event, status string) {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		h.logger.Error("webhook unmarshal invoice", "error", err)
		return
	}
	if inv.Customer == nil {
		return
	}
	if err := h.subscriptionStore.UpdateStatus(inv.Customer.ID, status, nil); err != nil {
		h.logger.Error("webhook update status", "error", err)
	}
}

func (h *BillingHandler) handleSubscriptionUpdated(event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("webhook unmarshal subscription", "error", err)
		return
	}
	if sub.Customer == nil {
		return
	}

	status := model.SubStatusActive
	switch sub.Status {
	case stripe.SubscriptionStatusPastDue:
		status = model.SubStatusPastDue
	case stripe.SubscriptionStatusCanceled:
		status = model.SubStatusCanceled
	}

	var periodEnd *time.Time
	if len(sub.Items.Data) > 0 && sub.Items.Data[0].CurrentPeriodEnd > 0 {
		t := time.Unix(sub.Items.Data[0].CurrentPeriodEnd, 0)
		periodEnd = &t
	}

	if err := h.subscriptionStore.UpdateStatus(sub.Customer.ID, status, periodEnd); err != nil {
		h.logger.Error("webhook update subscription", "error", err)
	}
}

func (h *BillingHandler) handleSubscriptionDeleted(event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("webhook unmarshal subscription", "error", err)
		return
	}
	if sub.Customer == nil {
		return
	}
	if err := h.subscriptionStore.UpdateStatus(sub.Customer.ID, model.SubStatusCanceled, nil); err != nil {
		h.logger.Error("webhook cancel subscription", "error", err)
	}
}
