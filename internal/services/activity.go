package services

import (
	"context"

	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/store"
)

// ActivityLog appends feed entries. Failures are logged and swallowed; the
// feed never fails the operation it describes.
type ActivityLog struct {
	store store.Store
	log   logging.Logger
}

func NewActivityLog(s store.Store, log logging.Logger) *ActivityLog {
	return &ActivityLog{store: s, log: log}
}

func (a *ActivityLog) Record(ctx context.Context, owner uint, typ models.ActivityType, quoteID, clientID string, meta map[string]any) {
	if a == nil {
		return
	}
	entry := &models.Activity{
		UserID:   owner,
		Type:     typ,
		QuoteID:  quoteID,
		ClientID: clientID,
		Metadata: meta,
	}
	if err := a.store.Activities().Append(ctx, entry); err != nil {
		a.log.Warn(ctx, "activity not recorded", "type", typ, "quote_id", quoteID, "error", err)
	}
}

func (a *ActivityLog) Recent(ctx context.Context, owner uint, limit int) ([]models.Activity, error) {
	return a.store.Activities().ListRecent(ctx, owner, limit)
}
