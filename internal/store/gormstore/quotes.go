package gormstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/models"
)

type quoteRepo struct {
	db *gorm.DB
}

func (r *quoteRepo) Create(ctx context.Context, q *models.Quote) error {
	err := r.db.WithContext(ctx).Omit("Client", "Reminders", "Signature").Create(q).Error
	return translate("create quote", err)
}

func (r *quoteRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Signature")
}

func (r *quoteRepo) GetByID(ctx context.Context, id string, ownerID uint) (*models.Quote, error) {
	var q models.Quote
	err := r.preloaded(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&q).Error
	if err != nil {
		return nil, translate("get quote", err)
	}
	return &q, nil
}

func (r *quoteRepo) GetPublic(ctx context.Context, id string) (*models.Quote, error) {
	var q models.Quote
	if err := r.preloaded(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		return nil, translate("get public quote", err)
	}
	return &q, nil
}

func (r *quoteRepo) UpdateStatus(ctx context.Context, id string, ownerID uint, expectedVersion int64, patch models.QuoteStatusPatch) error {
	updates := map[string]any{
		"status":     patch.Status,
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now().UTC(),
	}
	if patch.SentAt != nil {
		updates["sent_at"] = *patch.SentAt
	}
	if patch.LastSentAt != nil {
		updates["last_sent_at"] = *patch.LastSentAt
	}
	if patch.ViewedAt != nil {
		updates["viewed_at"] = *patch.ViewedAt
	}
	if patch.AcceptedAt != nil {
		updates["accepted_at"] = *patch.AcceptedAt
	}
	if patch.RefusedAt != nil {
		updates["refused_at"] = *patch.RefusedAt
	}

	res := r.db.WithContext(ctx).Model(&models.Quote{}).
		Where("id = ? AND user_id = ? AND version = ?", id, ownerID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return translate("update quote status", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(ctx, id, ownerID)
	}
	return nil
}

// missOrConflict tells a stale version apart from a missing quote after a
// conditional write touched no row.
func (r *quoteRepo) missOrConflict(ctx context.Context, id string, ownerID uint) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Quote{}).Where("id = ? AND user_id = ?", id, ownerID).Count(&n).Error; err != nil {
		return translate("update quote status", err)
	}
	if n == 0 {
		return fmt.Errorf("update quote status: %w", common.ErrNotFound)
	}
	return fmt.Errorf("update quote status: %w", common.ErrVersionConflict)
}

func (r *quoteRepo) List(ctx context.Context, ownerID uint, status models.QuoteStatus) ([]models.Quote, error) {
	q := r.db.WithContext(ctx).Preload("Client").Where("user_id = ?", ownerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var quotes []models.Quote
	if err := q.Order("created_at DESC").Find(&quotes).Error; err != nil {
		return nil, translate("list quotes", err)
	}
	return quotes, nil
}

func (r *quoteRepo) Delete(ctx context.Context, id string, ownerID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Quote
		if err := tx.Where("id = ? AND user_id = ?", id, ownerID).First(&q).Error; err != nil {
			return translate("delete quote", err)
		}
		for _, child := range []any{&models.QuoteItem{}, &models.Reminder{}, &models.Signature{}} {
			if err := tx.Where("quote_id = ?", id).Delete(child).Error; err != nil {
				return translate("delete quote children", err)
			}
		}
		return translate("delete quote", tx.Delete(&q).Error)
	})
}

func (r *quoteRepo) SetDocument(ctx context.Context, id string, ownerID uint, key string) error {
	res := r.db.WithContext(ctx).Model(&models.Quote{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Update("pdf_key", key)
	if res.Error != nil {
		return translate("set quote document", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set quote document: %w", common.ErrNotFound)
	}
	return nil
}

func (r *quoteRepo) CountByStatus(ctx context.Context, ownerID uint) (map[models.QuoteStatus]int64, error) {
	var rows []struct {
		Status models.QuoteStatus
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&models.Quote{}).
		Select("status, COUNT(*) AS n").
		Where("user_id = ?", ownerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate("count quotes", err)
	}
	out := make(map[models.QuoteStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
