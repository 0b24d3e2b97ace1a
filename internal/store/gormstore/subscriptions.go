package gormstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/facilidevis/facilidevis/internal/models"
)

type subscriptionRepo struct {
	db *gorm.DB
}

func (r *subscriptionRepo) GetByUser(ctx context.Context, userID uint) (*models.Subscription, error) {
	var s models.Subscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, translate("get subscription", err)
	}
	return &s, nil
}

func (r *subscriptionRepo) GetByCustomer(ctx context.Context, customerID string) (*models.Subscription, error) {
	var s models.Subscription
	if err := r.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).First(&s).Error; err != nil {
		return nil, translate("get subscription by customer", err)
	}
	return &s, nil
}

func (r *subscriptionRepo) Upsert(ctx context.Context, s *models.Subscription) error {
	if s.ID != 0 {
		return translate("update subscription", r.db.WithContext(ctx).Save(s).Error)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stripe_customer_id", "stripe_subscription_id", "status", "plan",
			"current_period_start", "current_period_end", "cancel_at_period_end", "updated_at",
		}),
	}).Create(s).Error
	return translate("upsert subscription", err)
}
