package pgstore

import (
	"context"
	"time"

	"github.com/facilidevis/facilidevis/internal/models"
)

type subscriptionRepo struct {
	db DBTX
}

const subscriptionColumns = `id, created_at, updated_at, user_id, stripe_customer_id, stripe_subscription_id,
	status, plan, current_period_start, current_period_end, cancel_at_period_end`

func (r *subscriptionRepo) get(ctx context.Context, op, where string, arg any) (*models.Subscription, error) {
	var s models.Subscription
	err := r.db.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE `+where, arg).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt, &s.UserID, &s.StripeCustomerID, &s.StripeSubscriptionID,
			&s.Status, &s.Plan, &s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd)
	if err != nil {
		return nil, translate(op, err)
	}
	return &s, nil
}

func (r *subscriptionRepo) GetByUser(ctx context.Context, userID uint) (*models.Subscription, error) {
	return r.get(ctx, "get subscription", "user_id = $1", userID)
}

func (r *subscriptionRepo) GetByCustomer(ctx context.Context, customerID string) (*models.Subscription, error) {
	return r.get(ctx, "get subscription by customer", "stripe_customer_id = $1", customerID)
}

func (r *subscriptionRepo) Upsert(ctx context.Context, s *models.Subscription) error {
	now := time.Now().UTC()
	s.UpdatedAt = now
	err := r.db.QueryRow(ctx, `INSERT INTO subscriptions (created_at, updated_at, user_id, stripe_customer_id,
			stripe_subscription_id, status, plan, current_period_start, current_period_end, cancel_at_period_end)
		VALUES ($1, $1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			updated_at = EXCLUDED.updated_at,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			status = EXCLUDED.status,
			plan = EXCLUDED.plan,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end
		RETURNING id, created_at`,
		now, s.UserID, s.StripeCustomerID, s.StripeSubscriptionID, s.Status, s.Plan,
		s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelAtPeriodEnd).Scan(&s.ID, &s.CreatedAt)
	return translate("upsert subscription", err)
}
