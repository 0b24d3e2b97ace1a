package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/models"
)

type clientRepo struct {
	db *gorm.DB
}

func (r *clientRepo) Create(ctx context.Context, c *models.Client) error {
	return translate("create client", r.db.WithContext(ctx).Create(c).Error)
}

func (r *clientRepo) GetByID(ctx context.Context, id string, ownerID uint) (*models.Client, error) {
	var c models.Client
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&c).Error; err != nil {
		return nil, translate("get client", err)
	}
	return &c, nil
}

func (r *clientRepo) List(ctx context.Context, ownerID uint) ([]models.Client, error) {
	var clients []models.Client
	if err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("name").Find(&clients).Error; err != nil {
		return nil, translate("list clients", err)
	}
	return clients, nil
}

func (r *clientRepo) Delete(ctx context.Context, id string, ownerID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Client
		if err := tx.Where("id = ? AND user_id = ?", id, ownerID).First(&c).Error; err != nil {
			return translate("delete client", err)
		}
		var quotes int64
		if err := tx.Model(&models.Quote{}).Where("client_id = ?", id).Count(&quotes).Error; err != nil {
			return translate("delete client", err)
		}
		if quotes > 0 {
			return fmt.Errorf("delete client: %d quotes: %w", quotes, common.ErrInUse)
		}
		return translate("delete client", tx.Delete(&c).Error)
	})
}
