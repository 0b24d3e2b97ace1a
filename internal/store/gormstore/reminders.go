package gormstore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/facilidevis/facilidevis/internal/models"
)

type reminderRepo struct {
	db *gorm.DB
}

func (r *reminderRepo) CreateBatch(ctx context.Context, reminders []models.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&reminders).Error
	})
	return translate("create reminders", err)
}

func (r *reminderRepo) CountForQuote(ctx context.Context, quoteID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Reminder{}).Where("quote_id = ?", quoteID).Count(&n).Error
	return n, translate("count reminders", err)
}

func (r *reminderRepo) FindDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	var due []models.Reminder
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_at <= ?", models.ReminderStatusPending, now.UTC()).
		Order("due_at, seq").
		Find(&due).Error
	if err != nil {
		return nil, translate("find due reminders", err)
	}
	return due, nil
}

func (r *reminderRepo) MarkDone(ctx context.Context, id string, at time.Time) (bool, error) {
	at = at.UTC()
	res := r.db.WithContext(ctx).Model(&models.Reminder{}).
		Where("id = ? AND status = ?", id, models.ReminderStatusPending).
		Updates(map[string]any{"status": models.ReminderStatusDone, "completed_at": at})
	if res.Error != nil {
		return false, translate("mark reminder done", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *reminderRepo) ListForQuote(ctx context.Context, quoteID string, ownerID uint) ([]models.Reminder, error) {
	var list []models.Reminder
	err := r.db.WithContext(ctx).Where("quote_id = ? AND user_id = ?", quoteID, ownerID).Order("seq").Find(&list).Error
	if err != nil {
		return nil, translate("list reminders", err)
	}
	return list, nil
}
