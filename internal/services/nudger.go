package services

import (
	"context"
	"fmt"

	"github.com/facilidevis/facilidevis/internal/delivery"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/render"
)

// ReminderNudger emails the client when one of their reminders falls due.
type ReminderNudger struct {
	quotes *QuoteService
}

func NewReminderNudger(quotes *QuoteService) *ReminderNudger {
	return &ReminderNudger{quotes: quotes}
}

func (n *ReminderNudger) Nudge(ctx context.Context, q *models.Quote, r models.Reminder) error {
	_, doc, err := n.quotes.documentFor(ctx, q)
	if err != nil {
		return err
	}
	mail, err := render.ReminderEmail(doc, r.Seq)
	if err != nil {
		return err
	}
	rcpt, err := n.quotes.Dispatcher.Send(ctx, delivery.Message{
		Channel: r.Channel,
		To:      q.Client.ContactFor(r.Channel),
		Subject: mail.Subject,
		Body:    mail.Text,
		HTML:    mail.HTML,
	})
	if err != nil {
		return fmt.Errorf("reminder %d: %w", r.Seq, err)
	}
	n.quotes.Activity.Record(ctx, q.UserID, models.ActivityReminderSent, q.ID, q.ClientID, map[string]any{
		"seq":       r.Seq,
		"simulated": rcpt.Simulated,
	})
	return nil
}
