package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/facilidevis/facilidevis/internal/models"
)

type signatureRepo struct {
	db *gorm.DB
}

func (r *signatureRepo) Create(ctx context.Context, s *models.Signature) error {
	return translate("create signature", r.db.WithContext(ctx).Create(s).Error)
}

func (r *signatureRepo) GetForQuote(ctx context.Context, quoteID string) (*models.Signature, error) {
	var s models.Signature
	if err := r.db.WithContext(ctx).Where("quote_id = ?", quoteID).First(&s).Error; err != nil {
		return nil, translate("get signature", err)
	}
	return &s, nil
}
