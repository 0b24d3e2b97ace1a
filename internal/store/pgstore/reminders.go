package pgstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/facilidevis/facilidevis/internal/models"
)

type reminderRepo struct {
	db DBTX
}

const reminderColumns = `id, created_at, quote_id, seq, user_id, due_at, channel, status, completed_at`

func collectReminders(rows pgx.Rows) ([]models.Reminder, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Reminder, error) {
		var rm models.Reminder
		err := row.Scan(&rm.ID, &rm.CreatedAt, &rm.QuoteID, &rm.Seq, &rm.UserID, &rm.DueAt, &rm.Channel, &rm.Status, &rm.CompletedAt)
		return rm, err
	})
}

func (r *reminderRepo) CreateBatch(ctx context.Context, reminders []models.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for i := range reminders {
		rm := &reminders[i]
		if rm.ID == "" {
			rm.ID = models.NewID()
		}
		rm.CreatedAt = now
		batch.Queue(`INSERT INTO reminders (`+reminderColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			rm.ID, rm.CreatedAt, rm.QuoteID, rm.Seq, rm.UserID, rm.DueAt, rm.Channel, rm.Status, rm.CompletedAt)
	}
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return translate("create reminders", tx.SendBatch(ctx, batch).Close())
	})
}

func (r *reminderRepo) CountForQuote(ctx context.Context, quoteID string) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reminders WHERE quote_id = $1`, quoteID).Scan(&n)
	return n, translate("count reminders", err)
}

func (r *reminderRepo) FindDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reminderColumns+` FROM reminders
		WHERE status = $1 AND due_at <= $2 ORDER BY due_at, seq`, models.ReminderStatusPending, now)
	if err != nil {
		return nil, translate("find due reminders", err)
	}
	due, err := collectReminders(rows)
	return due, translate("find due reminders", err)
}

func (r *reminderRepo) MarkDone(ctx context.Context, id string, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE reminders SET status = $2, completed_at = $3 WHERE id = $1 AND status = $4`,
		id, models.ReminderStatusDone, at.UTC(), models.ReminderStatusPending)
	if err != nil {
		return false, translate("mark reminder done", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *reminderRepo) ListForQuote(ctx context.Context, quoteID string, ownerID uint) ([]models.Reminder, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE quote_id = $1 AND user_id = $2 ORDER BY seq`, quoteID, ownerID)
	if err != nil {
		return nil, translate("list reminders", err)
	}
	list, err := collectReminders(rows)
	return list, translate("list reminders", err)
}
