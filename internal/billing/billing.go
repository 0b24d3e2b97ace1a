// Package billing manages artisan subscriptions through Stripe Checkout and
// keeps the local subscription state in sync from webhooks.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/config"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/store"
)

// ErrUnknownPlan is returned for a plan with no configured price.
var ErrUnknownPlan = errors.New("unknown plan")

type CustomerRequest struct {
	UserID      uint
	Email       string
	CompanyName string
	Phone       string
}

type CheckoutRequest struct {
	UserID     uint
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// Gateway is the subset of the payment provider used here.
type Gateway interface {
	CreateCustomer(ctx context.Context, c CustomerRequest) (string, error)
	CreateCheckout(ctx context.Context, r CheckoutRequest) (string, error)
	ParseEvent(payload []byte, signature string) (stripe.Event, error)
}

type Service struct {
	store     store.Store
	gw        Gateway
	prices    map[models.Plan]string
	publicURL string
	log       logging.Logger
}

// NewService returns a service; gw may be nil when payments are not
// configured, in which case every call yields common.ErrConfigMissing.
func NewService(s store.Store, gw Gateway, cfg config.StripeConfig, publicURL string, log logging.Logger) *Service {
	return &Service{
		store: s,
		gw:    gw,
		prices: map[models.Plan]string{
			models.PlanStarter: cfg.PriceStarter,
			models.PlanPro:     cfg.PricePro,
		},
		publicURL: publicURL,
		log:       log,
	}
}

// Checkout returns the URL of a Checkout session for plan, creating the
// Stripe customer on first use.
func (s *Service) Checkout(ctx context.Context, u *models.User, plan models.Plan) (string, error) {
	if s.gw == nil {
		return "", fmt.Errorf("stripe: %w", common.ErrConfigMissing)
	}
	price := s.prices[plan]
	if price == "" {
		return "", common.NewValidationError(map[string]string{"plan": "unknown_plan"})
	}

	sub, err := s.store.Subscriptions().GetByUser(ctx, u.ID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		customerID, err := s.gw.CreateCustomer(ctx, CustomerRequest{
			UserID: u.ID, Email: u.Email, CompanyName: u.CompanyName, Phone: u.Phone,
		})
		if err != nil {
			return "", fmt.Errorf("create stripe customer: %w", err)
		}
		sub = &models.Subscription{
			UserID:           u.ID,
			StripeCustomerID: customerID,
			Status:           models.SubscriptionTrialing,
			Plan:             models.PlanFree,
		}
		if err := s.store.Subscriptions().Upsert(ctx, sub); err != nil {
			return "", err
		}
		s.log.Info(ctx, "stripe customer created", "user_id", u.ID, "customer_id", customerID)
	case err != nil:
		return "", err
	}

	url, err := s.gw.CreateCheckout(ctx, CheckoutRequest{
		UserID:     u.ID,
		CustomerID: sub.StripeCustomerID,
		PriceID:    price,
		SuccessURL: s.publicURL + "/settings/billing?checkout=success",
		CancelURL:  s.publicURL + "/settings/billing?checkout=cancel",
	})
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return url, nil
}

// HandleWebhook verifies and applies a Stripe event. Unhandled event types
// are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gw == nil {
		return fmt.Errorf("stripe: %w", common.ErrConfigMissing)
	}
	ev, err := s.gw.ParseEvent(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	s.log.Info(ctx, "stripe webhook", "type", ev.Type, "id", ev.ID)

	switch ev.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		if cs.Customer == nil || cs.Subscription == nil {
			return nil
		}
		return s.update(ctx, cs.Customer.ID, func(sub *models.Subscription) {
			sub.StripeSubscriptionID = cs.Subscription.ID
			sub.Status = models.SubscriptionActive
		})
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var ss stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &ss); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		if ss.Customer == nil {
			return nil
		}
		return s.update(ctx, ss.Customer.ID, func(sub *models.Subscription) {
			sub.StripeSubscriptionID = ss.ID
			sub.Status = statusFrom(ss.Status)
			sub.CancelAtPeriodEnd = ss.CancelAtPeriodEnd
			sub.CurrentPeriodStart = unixPtr(ss.CurrentPeriodStart)
			sub.CurrentPeriodEnd = unixPtr(ss.CurrentPeriodEnd)
			if plan := s.planFor(ss); plan != "" {
				sub.Plan = plan
			}
			if ev.Type == "customer.subscription.deleted" {
				sub.Status = models.SubscriptionCanceled
				sub.Plan = models.PlanFree
			}
		})
	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return fmt.Errorf("decode invoice: %w", err)
		}
		if inv.Customer == nil {
			return nil
		}
		return s.update(ctx, inv.Customer.ID, func(sub *models.Subscription) {
			sub.Status = models.SubscriptionPastDue
		})
	}
	return nil
}

// update applies fn to the subscription of a Stripe customer. Events for
// unknown customers are ignored.
func (s *Service) update(ctx context.Context, customerID string, fn func(*models.Subscription)) error {
	sub, err := s.store.Subscriptions().GetByCustomer(ctx, customerID)
	if errors.Is(err, common.ErrNotFound) {
		s.log.Warn(ctx, "stripe event for unknown customer", "customer_id", customerID)
		return nil
	}
	if err != nil {
		return err
	}
	fn(sub)
	return s.store.Subscriptions().Upsert(ctx, sub)
}

func (s *Service) planFor(ss stripe.Subscription) models.Plan {
	if ss.Items == nil {
		return ""
	}
	for _, it := range ss.Items.Data {
		if it.Price == nil {
			continue
		}
		for plan, price := range s.prices {
			if price != "" && price == it.Price.ID {
				return plan
			}
		}
	}
	return ""
}

func statusFrom(st stripe.SubscriptionStatus) models.SubscriptionStatus {
	switch st {
	case stripe.SubscriptionStatusActive:
		return models.SubscriptionActive
	case stripe.SubscriptionStatusTrialing:
		return models.SubscriptionTrialing
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusIncomplete:
		return models.SubscriptionPastDue
	default:
		return models.SubscriptionCanceled
	}
}

func unixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
