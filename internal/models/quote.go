package models

import (
	"time"

	"gorm.io/gorm"
)

// QuoteStatus represents the lifecycle state of a quote.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusViewed   QuoteStatus = "viewed"
	QuoteStatusReminded QuoteStatus = "reminded"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRefused  QuoteStatus = "refused"
)

// QuoteStatuses lists every status in lifecycle order.
var QuoteStatuses = []QuoteStatus{
	QuoteStatusDraft,
	QuoteStatusSent,
	QuoteStatusViewed,
	QuoteStatusReminded,
	QuoteStatusAccepted,
	QuoteStatusRefused,
}

// Valid reports whether s is a known status.
func (s QuoteStatus) Valid() bool {
	for _, known := range QuoteStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal returns true for accepted and refused quotes.
func (s QuoteStatus) IsTerminal() bool {
	return s == QuoteStatusAccepted || s == QuoteStatusRefused
}

// TaxRate is the French standard VAT rate applied to every quote.
const TaxRate = 0.20

// Quote is a priced proposal sent by an artisan to one of their clients.
type Quote struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this quote (for multi-tenant isolation)
	UserID uint `gorm:"index;not null" json:"user_id"`

	ClientID string  `gorm:"type:varchar(36);index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Amounts are computed server side when the quote is created.
	AmountHT  float64 `gorm:"type:decimal(12,2);not null" json:"amount_ht"`
	AmountTTC float64 `gorm:"type:decimal(12,2);not null" json:"amount_ttc"`

	Status QuoteStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`

	// PDFKey references the rendered document in object storage.
	PDFKey string `gorm:"size:255" json:"pdf_key,omitempty"`

	SentAt     *time.Time `json:"sent_at,omitempty"`
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`
	ViewedAt   *time.Time `json:"viewed_at,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	RefusedAt  *time.Time `json:"refused_at,omitempty"`

	// Version is bumped on every status write; writes are conditional on it.
	Version int64 `gorm:"not null;default:1" json:"version"`

	Items     []QuoteItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Reminders []Reminder  `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"reminders,omitempty"`
	Signature *Signature  `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"signature,omitempty"`
}

// BeforeCreate assigns a random ID when none is set.
func (q *Quote) BeforeCreate(_ *gorm.DB) error {
	if q.ID == "" {
		q.ID = NewID()
	}
	return nil
}

// IsDraft returns true if the quote has never been delivered.
func (q *Quote) IsDraft() bool {
	return q.Status == QuoteStatusDraft
}

// IsOpen returns true while the client can still act on the quote.
func (q *Quote) IsOpen() bool {
	return !q.Status.IsTerminal()
}

// QuoteItem is one line of a quote. Total is always quantity × unit price,
// computed on the server.
type QuoteItem struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	QuoteID  string `gorm:"type:varchar(36);index;not null" json:"quote_id"`
	Position int    `gorm:"not null;default:0" json:"position"`
	Label    string `gorm:"size:500;not null" json:"label"`

	Quantity  float64 `gorm:"type:decimal(10,3);not null" json:"quantity"`
	UnitPrice float64 `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Total     float64 `gorm:"type:decimal(12,2);not null" json:"total"`
}

// QuoteStatusPatch is the set of fields a lifecycle transition may write.
// Nil timestamps are left untouched.
type QuoteStatusPatch struct {
	Status     QuoteStatus
	SentAt     *time.Time
	LastSentAt *time.Time
	ViewedAt   *time.Time
	AcceptedAt *time.Time
	RefusedAt  *time.Time
}

// Apply copies the patch onto q and bumps the version, mirroring what the
// store persisted.
func (p QuoteStatusPatch) Apply(q *Quote) {
	q.Status = p.Status
	if p.SentAt != nil {
		q.SentAt = p.SentAt
	}
	if p.LastSentAt != nil {
		q.LastSentAt = p.LastSentAt
	}
	if p.ViewedAt != nil {
		q.ViewedAt = p.ViewedAt
	}
	if p.AcceptedAt != nil {
		q.AcceptedAt = p.AcceptedAt
	}
	if p.RefusedAt != nil {
		q.RefusedAt = p.RefusedAt
	}
	q.Version++
}
