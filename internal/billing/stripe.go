package billing

import (
	"context"
	"strconv"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeGateway talks to the Stripe API with a per-instance client.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, c CustomerRequest) (string, error) {
	params := &stripe.CustomerParams{Email: stripe.String(c.Email)}
	params.Context = ctx
	params.AddMetadata("user_id", strconv.FormatUint(uint64(c.UserID), 10))
	if c.CompanyName != "" {
		params.AddMetadata("company_name", c.CompanyName)
	}
	if c.Phone != "" {
		params.AddMetadata("phone", c.Phone)
	}
	cust, err := g.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, r CheckoutRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:          stripe.String(r.CustomerID),
		ClientReferenceID: stripe.String(strconv.FormatUint(uint64(r.UserID), 10)),
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(r.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(r.SuccessURL),
		CancelURL:  stripe.String(r.CancelURL),
	}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

// ParseEvent verifies the Stripe-Signature header and decodes the event.
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
