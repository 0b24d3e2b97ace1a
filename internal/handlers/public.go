package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/facilidevis/facilidevis/httpx"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/services"
)

// maxAcceptBody fits a data URL of the largest accepted signature plus the
// other fields.
var maxAcceptBody = int64(base64.StdEncoding.EncodedLen(services.MaxSignatureBytes) + 4<<10)

// PublicHandler serves the capability links sent to clients. The quote id
// is the only credential.
type PublicHandler struct {
	quotes *services.QuoteService
	log    logging.Logger
}

func NewPublicHandler(quotes *services.QuoteService, log logging.Logger) *PublicHandler {
	return &PublicHandler{quotes: quotes, log: log}
}

// publicQuote is what the recipient sees: no owner id, no storage keys.
type publicQuote struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Status      models.QuoteStatus `json:"status"`
	AmountHT    float64            `json:"amount_ht"`
	AmountTTC   float64            `json:"amount_ttc"`
	ClientName  string             `json:"client_name,omitempty"`
	Items       []models.QuoteItem `json:"items"`
	Signed      bool               `json:"signed"`
}

func toPublic(q *models.Quote) publicQuote {
	out := publicQuote{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Status:      q.Status,
		AmountHT:    q.AmountHT,
		AmountTTC:   q.AmountTTC,
		Items:       q.Items,
		Signed:      q.Signature != nil,
	}
	if q.Client != nil {
		out.ClientName = q.Client.Name
	}
	return out
}

// View returns the quote and records the first view.
func (h *PublicHandler) View(w http.ResponseWriter, r *http.Request) {
	q, err := h.quotes.View(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPublic(q))
}

func (h *PublicHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var in services.AcceptInput
	if r.ContentLength != 0 && !decodeLimit(w, r, &in, maxAcceptBody) {
		return
	}
	in.IPAddress = clientIP(r)
	q, err := h.quotes.Accept(r.Context(), r.PathValue("id"), in)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPublic(q))
}

func (h *PublicHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pdf, err := h.quotes.PublicPDF(r.Context(), id)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	writePDF(w, "devis-"+id+".pdf", pdf)
}
