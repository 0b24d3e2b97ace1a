package handlers

import (
	"io"
	"net/http"

	"github.com/facilidevis/facilidevis/httpx"
	"github.com/facilidevis/facilidevis/internal/billing"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/services"
)

const maxWebhookBytes = 64 << 10

type BillingHandler struct {
	billing  *billing.Service
	accounts *services.AccountService
	log      logging.Logger
}

func NewBillingHandler(b *billing.Service, accounts *services.AccountService, log logging.Logger) *BillingHandler {
	return &BillingHandler{billing: b, accounts: accounts, log: log}
}

type checkoutRequest struct {
	Plan models.Plan `json:"plan"`
}

func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	var in checkoutRequest
	if !decode(w, r, &in) {
		return
	}
	user, err := h.accounts.Get(r.Context(), uid)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	url, err := h.billing.Checkout(r.Context(), user, in.Plan)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"url": url})
}

// Webhook receives Stripe events. The body must be read raw for the
// signature check.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_body", nil)
		return
	}
	if err := h.billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.log.Warn(r.Context(), "stripe webhook rejected", "error", err)
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"received": true})
}
