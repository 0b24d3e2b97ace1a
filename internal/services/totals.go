package services

import (
	"github.com/shopspring/decimal"

	"github.com/facilidevis/facilidevis/internal/models"
)

var vatMultiplier = decimal.NewFromFloat(1 + models.TaxRate)

// LineInput is a quote line as submitted by the artisan. Totals are never
// taken from input.
type LineInput struct {
	Label     string  `json:"label"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// ComputeTotals builds the quote lines and the HT/TTC amounts, rounding
// every amount to the cent.
func ComputeTotals(lines []LineInput) (items []models.QuoteItem, ht, ttc float64) {
	sum := decimal.Zero
	items = make([]models.QuoteItem, len(lines))
	for i, l := range lines {
		total := decimal.NewFromFloat(l.Quantity).Mul(decimal.NewFromFloat(l.UnitPrice)).Round(2)
		sum = sum.Add(total)
		items[i] = models.QuoteItem{
			Position:  i,
			Label:     l.Label,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     total.InexactFloat64(),
		}
	}
	return items, sum.InexactFloat64(), sum.Mul(vatMultiplier).Round(2).InexactFloat64()
}
