package models

import (
	"time"

	"gorm.io/gorm"
)

// Channel is a delivery channel for quotes and reminders.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Valid reports whether c is a supported channel.
func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS
}

// ReminderStatus is pending until the scheduler processes the reminder.
type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "pending"
	ReminderStatusDone    ReminderStatus = "done"
)

// Reminder is a scheduled nudge for a quote. A quote owns at most one batch;
// Seq is unique per quote.
type Reminder struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	QuoteID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_reminders_quote_seq" json:"quote_id"`
	Seq     int    `gorm:"not null;uniqueIndex:idx_reminders_quote_seq" json:"seq"`
	UserID  uint   `gorm:"index;not null" json:"user_id"`

	DueAt       time.Time      `gorm:"index;not null" json:"due_at"`
	Channel     Channel        `gorm:"size:10;not null" json:"channel"`
	Status      ReminderStatus `gorm:"size:10;not null;index" json:"status"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// BeforeCreate assigns a random ID when none is set.
func (r *Reminder) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	return nil
}

// IsDue reports whether the reminder is pending and due at now.
func (r *Reminder) IsDue(now time.Time) bool {
	return r.Status == ReminderStatusPending && !r.DueAt.After(now)
}
