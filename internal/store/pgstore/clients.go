package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/models"
)

type clientRepo struct {
	db DBTX
}

const clientColumns = `id, created_at, updated_at, user_id, name, email, phone, address`

func scanClient(row pgx.Row) (*models.Client, error) {
	var c models.Client
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.Address); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepo) Create(ctx context.Context, c *models.Client) error {
	if c.ID == "" {
		c.ID = models.NewID()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := r.db.Exec(ctx, `INSERT INTO clients (`+clientColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.CreatedAt, c.UpdatedAt, c.UserID, c.Name, c.Email, c.Phone, c.Address)
	return translate("create client", err)
}

func (r *clientRepo) GetByID(ctx context.Context, id string, ownerID uint) (*models.Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 AND user_id = $2`, id, ownerID))
	if err != nil {
		return nil, translate("get client", err)
	}
	return c, nil
}

func (r *clientRepo) List(ctx context.Context, ownerID uint) ([]models.Client, error) {
	rows, err := r.db.Query(ctx, `SELECT `+clientColumns+` FROM clients WHERE user_id = $1 ORDER BY name`, ownerID)
	if err != nil {
		return nil, translate("list clients", err)
	}
	clients, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Client, error) {
		c, err := scanClient(row)
		if err != nil {
			return models.Client{}, err
		}
		return *c, nil
	})
	return clients, translate("list clients", err)
}

func (r *clientRepo) Delete(ctx context.Context, id string, ownerID uint) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var quotes int64
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM quotes WHERE client_id = $1`, id).Scan(&quotes); err != nil {
			return translate("delete client", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM clients WHERE id = $1 AND user_id = $2 AND $3 = 0`, id, ownerID, quotes)
		if err != nil {
			return translate("delete client", err)
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
		if _, err := (&clientRepo{db: tx}).GetByID(ctx, id, ownerID); err != nil {
			return err
		}
		return fmt.Errorf("delete client: %d quotes: %w", quotes, common.ErrInUse)
	})
}
