package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/avikal/sahaay/internal/model"
)

type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

const subscriptionCols = `id, guardian_id, stripe_customer_id, stripe_subscription_id, plan, status, current_period_end, created_at, updated_at`

func scanPlanSubscription(scanner interface{ Scan(...any) error }) (*model.PlanSubscription, error) {
	var sub model.PlanSubscription
	var periodEnd sql.NullTime
	err := scanner.Scan(
		&sub.ID, &sub.GuardianID, &sub.StripeCustomerID, &sub.StripeSubscriptionID,
		&sub.Plan, &sub.Status, &periodEnd, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if periodEnd.Valid {
		sub.CurrentPeriodEnd = &periodEnd.Time
	}
	return &sub, nil
}

// Upsert creates or replaces the guardian's subscription row.
func (s *SubscriptionStore) Upsert(guardianID int64, customerID, subscriptionID, plan, status string, periodEnd *time.Time) (*model.PlanSubscription, error) {
	var pe sql.NullTime
	if periodEnd != nil {
		pe = sql.NullTime{Time: periodEnd.UTC(), Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO plan_subscriptions (guardian_id, stripe_customer_id, stripe_subscription_id, plan, status, current_period_end)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(guardian_id) DO UPDATE SET
		   stripe_customer_id = excluded.stripe_customer_id,
		   stripe_subscription_id = excluded.stripe_subscription_id,
		   plan = excluded.plan,
		   status = excluded.status,
		   current_period_end = excluded.current_period_end,
		   updated_at = datetime('now')`,
		guardianID, customerID, subscriptionID, plan, status, pe,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}
	return s.GetByGuardian(guardianID)
}

func (s *SubscriptionStore) GetByGuardian(guardianID int64) (*model.PlanSubscription, error) {
	row := s.db.QueryRow(`SELECT `+subscriptionCols+` FROM plan_subscriptions WHERE guardian_id = ?`, guardianID)
	sub, err := scanPlanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query subscription: %w", err)
	}
	return sub, nil
}

func (s *SubscriptionStore) GetByStripeCustomer(customerID string) (*model.PlanSubscription, error) {
	row := s.db.QueryRow(`SELECT `+subscriptionCols+` FROM plan_subscriptions WHERE stripe_customer_id = ?`, customerID)
	sub, err := scanPlanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query subscription by customer: %w", err)
	}
	return sub, nil
}

// UpdateStatus sets the status (and period end, when provided) for the
// subscription attached to a Stripe customer.
func (s *SubscriptionStore) UpdateStatus(customerID, status string, periodEnd *time.Time) error {
	var pe sql.NullTime
	if periodEnd != nil {
		pe = sql.NullTime{Time: periodEnd.UTC(), Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE plan_subscriptions SET status = ?, current_period_end = COALESCE(?, current_period_end), updated_at = datetime('now')
		 WHERE stripe_customer_id = ?`,
		status, pe, customerID,
	)
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	return nil
}
