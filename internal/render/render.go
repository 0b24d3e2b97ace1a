// Package render turns quotes into the documents sent to clients: the PDF
// devis, the HTML emails and the SMS text. Rendering is pure; nothing here
// touches the network or the store.
package render

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/facilidevis/facilidevis/internal/models"
)

// ValidityDays is how long a quote stays valid after creation.
const ValidityDays = 30

// DepositRate is the share of the TTC amount due on order.
var DepositRate = decimal.NewFromFloat(0.20)

// QuoteDocument is everything needed to render a quote. Quote must carry
// its client and items.
type QuoteDocument struct {
	Quote  *models.Quote
	Issuer *models.User
	URL    string
}

// Renderer produces the PDF of a quote.
type Renderer interface {
	Render(doc QuoteDocument) ([]byte, error)
}

// Number is the short human reference printed on documents.
func (d QuoteDocument) Number() string {
	id := d.Quote.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

func (d QuoteDocument) ClientName() string {
	if d.Quote.Client == nil {
		return ""
	}
	return d.Quote.Client.Name
}

func (d QuoteDocument) Company() string { return d.Issuer.DisplayName() }

func (d QuoteDocument) IssuedOn() time.Time { return d.Quote.CreatedAt }

func (d QuoteDocument) ValidUntil() time.Time {
	return d.Quote.CreatedAt.AddDate(0, 0, ValidityDays)
}

// VAT is TTC minus HT, rounded to cents.
func (d QuoteDocument) VAT() float64 {
	ttc := decimal.NewFromFloat(d.Quote.AmountTTC)
	ht := decimal.NewFromFloat(d.Quote.AmountHT)
	return ttc.Sub(ht).Round(2).InexactFloat64()
}

// Deposit returns the amount due on order and the balance due on delivery.
func (d QuoteDocument) Deposit() (deposit, balance float64) {
	ttc := decimal.NewFromFloat(d.Quote.AmountTTC)
	dep := ttc.Mul(DepositRate).Round(2)
	return dep.InexactFloat64(), ttc.Sub(dep).InexactFloat64()
}

// Money formats an amount the way it appears on every document.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + " €"
}

// Date formats a day as dd/mm/yyyy.
func Date(t time.Time) string { return t.Format("02/01/2006") }
