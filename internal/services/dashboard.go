package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/store"
)

const recentQuotes = 10

type DashboardStats struct {
	Sent           int64   `json:"sent"`
	Accepted       int64   `json:"accepted"`
	ConversionRate float64 `json:"conversion_rate"`
}

type RecentQuote struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	AmountTTC  float64            `json:"amount_ttc"`
	Status     models.QuoteStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	ClientName string             `json:"client_name,omitempty"`
}

type Dashboard struct {
	Stats        DashboardStats               `json:"stats"`
	ByStatus     map[models.QuoteStatus]int64 `json:"by_status"`
	RecentQuotes []RecentQuote                `json:"recent_quotes"`
	Activity     []models.Activity            `json:"activity"`
}

type DashboardService struct {
	store    store.Store
	activity *ActivityLog
}

func NewDashboardService(s store.Store, activity *ActivityLog) *DashboardService {
	return &DashboardService{store: s, activity: activity}
}

// Get computes the owner's headline figures. A quote counts as sent once it
// has left draft, whatever happened afterwards, except a refusal.
func (d *DashboardService) Get(ctx context.Context, owner uint) (Dashboard, error) {
	counts, err := d.store.Quotes().CountByStatus(ctx, owner)
	if err != nil {
		return Dashboard{}, err
	}
	var out Dashboard
	out.ByStatus = counts
	for _, st := range []models.QuoteStatus{models.QuoteStatusSent, models.QuoteStatusViewed, models.QuoteStatusReminded, models.QuoteStatusAccepted} {
		out.Stats.Sent += counts[st]
	}
	out.Stats.Accepted = counts[models.QuoteStatusAccepted]
	if out.Stats.Sent > 0 {
		out.Stats.ConversionRate = decimal.NewFromInt(out.Stats.Accepted).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(out.Stats.Sent)).
			Round(2).InexactFloat64()
	}

	quotes, err := d.store.Quotes().List(ctx, owner, "")
	if err != nil {
		return Dashboard{}, err
	}
	if len(quotes) > recentQuotes {
		quotes = quotes[:recentQuotes]
	}
	out.RecentQuotes = make([]RecentQuote, 0, len(quotes))
	for _, q := range quotes {
		rq := RecentQuote{ID: q.ID, Title: q.Title, AmountTTC: q.AmountTTC, Status: q.Status, CreatedAt: q.CreatedAt}
		if q.Client != nil {
			rq.ClientName = q.Client.Name
		}
		out.RecentQuotes = append(out.RecentQuotes, rq)
	}

	out.Activity, err = d.activity.Recent(ctx, owner, recentQuotes)
	if err != nil {
		return Dashboard{}, err
	}
	return out, nil
}
