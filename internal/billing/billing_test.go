package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/config"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/store/storetest"
)

const whsec = "whsec_test_secret"

var prices = config.StripeConfig{PriceStarter: "price_starter", PricePro: "price_pro"}

type fakeGateway struct {
	*StripeGateway
	customers int
	checkout  []CheckoutRequest
	err       error
}

func (f *fakeGateway) CreateCustomer(_ context.Context, c CustomerRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.customers++
	return fmt.Sprintf("cus_%d", f.customers), nil
}

func (f *fakeGateway) CreateCheckout(_ context.Context, r CheckoutRequest) (string, error) {
	f.checkout = append(f.checkout, r)
	return "https://checkout.stripe.com/c/pay/cs_test_1", nil
}

func newGateway() *fakeGateway {
	return &fakeGateway{StripeGateway: NewStripeGateway("sk_test_x", whsec)}
}

func TestCheckout_CreatesCustomerOnce(t *testing.T) {
	s := storetest.NewGorm(t)
	u := storetest.SeedUser(t, s, "artisan@example.fr")
	gw := newGateway()
	svc := NewService(s, gw, prices, "https://app.facilidevis.fr", logging.Discard())
	ctx := context.Background()

	url, err := svc.Checkout(ctx, u, models.PlanPro)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", url)

	_, err = svc.Checkout(ctx, u, models.PlanStarter)
	require.NoError(t, err)

	assert.Equal(t, 1, gw.customers)
	require.Len(t, gw.checkout, 2)
	assert.Equal(t, "cus_1", gw.checkout[1].CustomerID)
	assert.Equal(t, "price_starter", gw.checkout[1].PriceID)
	assert.Equal(t, "https://app.facilidevis.fr/settings/billing?checkout=success", gw.checkout[0].SuccessURL)

	sub, err := s.Subscriptions().GetByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionTrialing, sub.Status)
	assert.Equal(t, models.PlanFree, sub.Plan)
}

func TestCheckout_Errors(t *testing.T) {
	s := storetest.NewGorm(t)
	u := storetest.SeedUser(t, s, "artisan@example.fr")
	ctx := context.Background()

	_, err := NewService(s, nil, prices, "", logging.Discard()).Checkout(ctx, u, models.PlanPro)
	assert.ErrorIs(t, err, common.ErrConfigMissing)

	_, err = NewService(s, newGateway(), prices, "", logging.Discard()).Checkout(ctx, u, models.PlanEnterprise)
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "unknown_plan", verr.Fields["plan"])

	gw := newGateway()
	gw.err = errors.New("card_declined")
	_, err = NewService(s, gw, prices, "", logging.Discard()).Checkout(ctx, u, models.PlanPro)
	assert.Error(t, err)
	_, err = s.Subscriptions().GetByUser(ctx, u.ID)
	assert.ErrorIs(t, err, common.ErrNotFound, "no local state without a customer")
}

func signed(t *testing.T, payload string) (body []byte, header string) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    whsec,
		Timestamp: time.Now(),
	})
	return sp.Payload, sp.Header
}

func TestHandleWebhook_SubscriptionLifecycle(t *testing.T) {
	s := storetest.NewGorm(t)
	u := storetest.SeedUser(t, s, "artisan@example.fr")
	ctx := context.Background()
	require.NoError(t, s.Subscriptions().Upsert(ctx, &models.Subscription{
		UserID: u.ID, StripeCustomerID: "cus_1", Status: models.SubscriptionTrialing, Plan: models.PlanFree,
	}))
	svc := NewService(s, newGateway(), prices, "", logging.Discard())

	body, sig := signed(t, `{"id":"evt_1","object":"event","type":"customer.subscription.updated","data":{"object":{
		"id":"sub_1","object":"subscription","customer":"cus_1","status":"active","cancel_at_period_end":false,
		"current_period_start":1740819600,"current_period_end":1743498000,
		"items":{"object":"list","data":[{"id":"si_1","object":"subscription_item","price":{"id":"price_pro","object":"price"}}]}}}}`)
	require.NoError(t, svc.HandleWebhook(ctx, body, sig))

	sub, err := s.Subscriptions().GetByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Equal(t, models.PlanPro, sub.Plan)
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, int64(1743498000), sub.CurrentPeriodEnd.Unix())

	body, sig = signed(t, `{"id":"evt_2","object":"event","type":"customer.subscription.deleted","data":{"object":{
		"id":"sub_1","object":"subscription","customer":"cus_1","status":"canceled"}}}`)
	require.NoError(t, svc.HandleWebhook(ctx, body, sig))

	sub, err = s.Subscriptions().GetByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCanceled, sub.Status)
	assert.Equal(t, models.PlanFree, sub.Plan)
}

func TestHandleWebhook_RejectsBadSignature(t *testing.T) {
	s := storetest.NewGorm(t)
	svc := NewService(s, newGateway(), prices, "", logging.Discard())

	body, _ := signed(t, `{"id":"evt_1","object":"event","type":"invoice.payment_failed","data":{"object":{}}}`)
	err := svc.HandleWebhook(context.Background(), body, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestHandleWebhook_IgnoresUnknownCustomerAndType(t *testing.T) {
	s := storetest.NewGorm(t)
	svc := NewService(s, newGateway(), prices, "", logging.Discard())
	ctx := context.Background()

	body, sig := signed(t, `{"id":"evt_1","object":"event","type":"invoice.payment_failed","data":{"object":{"id":"in_1","object":"invoice","customer":"cus_ghost"}}}`)
	assert.NoError(t, svc.HandleWebhook(ctx, body, sig))

	body, sig = signed(t, `{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{}}}`)
	assert.NoError(t, svc.HandleWebhook(ctx, body, sig))
}

func TestStatusFrom(t *testing.T) {
	assert.Equal(t, models.SubscriptionActive, statusFrom(stripe.SubscriptionStatusActive))
	assert.Equal(t, models.SubscriptionPastDue, statusFrom(stripe.SubscriptionStatusUnpaid))
	assert.Equal(t, models.SubscriptionCanceled, statusFrom(stripe.SubscriptionStatusIncompleteExpired))
}
