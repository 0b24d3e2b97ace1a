package models

import (
	"time"

	"gorm.io/gorm"
)

// ActivityType names an event in the artisan's activity feed.
type ActivityType string

const (
	ActivityQuoteCreated  ActivityType = "quote_created"
	ActivityQuoteSent     ActivityType = "quote_sent"
	ActivityQuoteViewed   ActivityType = "quote_viewed"
	ActivityQuoteAccepted ActivityType = "quote_accepted"
	ActivityQuoteRefused  ActivityType = "quote_refused"
	ActivityClientCreated ActivityType = "client_created"
	ActivityReminderSent  ActivityType = "reminder_sent"
)

// Activity is an append-only audit entry.
type Activity struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	UserID   uint           `gorm:"index;not null" json:"user_id"`
	Type     ActivityType   `gorm:"size:40;not null" json:"type"`
	QuoteID  string         `gorm:"type:varchar(36);index" json:"quote_id,omitempty"`
	ClientID string         `gorm:"type:varchar(36)" json:"client_id,omitempty"`
	Metadata map[string]any `gorm:"serializer:json;type:text" json:"metadata,omitempty"`
}

// BeforeCreate assigns a random ID when none is set.
func (a *Activity) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = NewID()
	}
	return nil
}
