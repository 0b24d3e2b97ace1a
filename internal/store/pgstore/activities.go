package pgstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/facilidevis/facilidevis/internal/models"
)

type activityRepo struct {
	db DBTX
}

func (r *activityRepo) Append(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		a.ID = models.NewID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `INSERT INTO activities (id, created_at, user_id, type, quote_id, client_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.CreatedAt, a.UserID, a.Type, a.QuoteID, a.ClientID, a.Metadata)
	return translate("append activity", err)
}

func (r *activityRepo) ListRecent(ctx context.Context, ownerID uint, limit int) ([]models.Activity, error) {
	rows, err := r.db.Query(ctx, `SELECT id, created_at, user_id, type, quote_id, client_id, metadata
		FROM activities WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, translate("list activities", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Activity, error) {
		var a models.Activity
		err := row.Scan(&a.ID, &a.CreatedAt, &a.UserID, &a.Type, &a.QuoteID, &a.ClientID, &a.Metadata)
		return a, err
	})
	return list, translate("list activities", err)
}
