package handlers

import (
	"context"
	"net/http"

	"github.com/facilidevis/facilidevis/httpx"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/services"
)

type QuoteHandler struct {
	quotes *services.QuoteService
	log    logging.Logger
}

func NewQuoteHandler(quotes *services.QuoteService, log logging.Logger) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, log: log}
}

// List accepts an optional ?status= filter.
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	status := models.QuoteStatus(r.URL.Query().Get("status"))
	quotes, err := h.quotes.List(r.Context(), uid, status)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": quotes})
}

func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	var in services.CreateQuoteInput
	if !decode(w, r, &in) {
		return
	}
	q, err := h.quotes.Create(r.Context(), uid, in)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"quote":       q,
		"public_link": h.quotes.PublicLink(q.ID),
	})
}

func (h *QuoteHandler) View(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	q, err := h.quotes.Get(r.Context(), id, uid)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	reminders, err := h.quotes.Reminders(r.Context(), id, uid)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	q.Reminders = reminders
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	if err := h.quotes.Delete(r.Context(), r.PathValue("id"), uid); err != nil {
		fail(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuoteHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, h.quotes.SendEmail)
}

func (h *QuoteHandler) SendSMS(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, h.quotes.SendSMS)
}

func (h *QuoteHandler) send(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string, owner uint) (services.SendResult, error)) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	res, err := fn(r.Context(), r.PathValue("id"), uid)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *QuoteHandler) PDF(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	pdf, err := h.quotes.PDF(r.Context(), id, uid)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	writePDF(w, "devis-"+id+".pdf", pdf)
}
