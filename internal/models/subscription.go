package models

import "time"

// SubscriptionStatus mirrors the Stripe subscription states we care about.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionTrialing SubscriptionStatus = "trialing"
)

// Plan is the commercial plan of an artisan.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Subscription links an artisan to their Stripe customer and subscription.
type Subscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID               uint               `gorm:"uniqueIndex;not null" json:"user_id"`
	StripeCustomerID     string             `gorm:"size:255;uniqueIndex;not null" json:"stripe_customer_id"`
	StripeSubscriptionID string             `gorm:"size:255;index" json:"stripe_subscription_id,omitempty"`
	Status               SubscriptionStatus `gorm:"size:20;not null;default:'trialing'" json:"status"`
	Plan                 Plan               `gorm:"size:20;not null;default:'free'" json:"plan"`
	CurrentPeriodStart   *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool               `json:"cancel_at_period_end"`
}
