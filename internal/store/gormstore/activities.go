package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/facilidevis/facilidevis/internal/models"
)

type activityRepo struct {
	db *gorm.DB
}

func (r *activityRepo) Append(ctx context.Context, a *models.Activity) error {
	return translate("append activity", r.db.WithContext(ctx).Create(a).Error)
}

func (r *activityRepo) ListRecent(ctx context.Context, ownerID uint, limit int) ([]models.Activity, error) {
	var list []models.Activity
	err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("created_at DESC").Limit(limit).Find(&list).Error
	if err != nil {
		return nil, translate("list activities", err)
	}
	return list, nil
}
