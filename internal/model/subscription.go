package model

import "time"

// Plan subscription statuses mirror Stripe's subscription lifecycle.
const (
	SubStatusInactive = "inactive"
	SubStatusActive   = "active"
	SubStatusPastDue  = "past_due"
	SubStatusCanceled = "canceled"
)

type PlanSubscription struct {
	ID                   int64      `json:"id"`
	GuardianID           int64      `json:"guardian_id"`
	StripeCustomerID     string     `json:"-"`
	StripeSubscriptionID string     `json:"-"`
	Plan                 string     `json:"plan"`
	Status               string     `json:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
