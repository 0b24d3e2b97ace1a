package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/models"
)

type quoteRepo struct {
	db DBTX
}

const quoteColumns = `id, created_at, updated_at, user_id, client_id, title, description,
	amount_ht, amount_ttc, status, pdf_key, sent_at, last_sent_at, viewed_at,
	accepted_at, refused_at, version`

func scanQuote(row pgx.Row) (*models.Quote, error) {
	var q models.Quote
	err := row.Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt, &q.UserID, &q.ClientID, &q.Title, &q.Description,
		&q.AmountHT, &q.AmountTTC, &q.Status, &q.PDFKey, &q.SentAt, &q.LastSentAt, &q.ViewedAt,
		&q.AcceptedAt, &q.RefusedAt, &q.Version)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quoteRepo) Create(ctx context.Context, q *models.Quote) error {
	if q.ID == "" {
		q.ID = models.NewID()
	}
	now := time.Now().UTC()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now
	if q.Status == "" {
		q.Status = models.QuoteStatusDraft
	}
	if q.Version == 0 {
		q.Version = 1
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO quotes (`+quoteColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			q.ID, q.CreatedAt, q.UpdatedAt, q.UserID, q.ClientID, q.Title, q.Description,
			q.AmountHT, q.AmountTTC, q.Status, q.PDFKey, q.SentAt, q.LastSentAt, q.ViewedAt,
			q.AcceptedAt, q.RefusedAt, q.Version)
		if err != nil {
			return translate("create quote", err)
		}
		for i := range q.Items {
			it := &q.Items[i]
			it.QuoteID = q.ID
			err := tx.QueryRow(ctx, `INSERT INTO quote_items (quote_id, position, label, quantity, unit_price, total)
				VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
				it.QuoteID, it.Position, it.Label, it.Quantity, it.UnitPrice, it.Total).Scan(&it.ID)
			if err != nil {
				return translate("create quote item", err)
			}
		}
		return nil
	})
}

func (r *quoteRepo) GetByID(ctx context.Context, id string, ownerID uint) (*models.Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1 AND user_id = $2`, id, ownerID))
	if err != nil {
		return nil, translate("get quote", err)
	}
	return q, r.loadRelations(ctx, q)
}

func (r *quoteRepo) GetPublic(ctx context.Context, id string) (*models.Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if err != nil {
		return nil, translate("get public quote", err)
	}
	return q, r.loadRelations(ctx, q)
}

func (r *quoteRepo) loadRelations(ctx context.Context, q *models.Quote) error {
	c, err := scanClient(r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, q.ClientID))
	if err != nil {
		return translate("load quote client", err)
	}
	q.Client = c

	rows, err := r.db.Query(ctx, `SELECT id, quote_id, position, label, quantity, unit_price, total
		FROM quote_items WHERE quote_id = $1 ORDER BY position`, q.ID)
	if err != nil {
		return translate("load quote items", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.QuoteItem, error) {
		var it models.QuoteItem
		err := row.Scan(&it.ID, &it.QuoteID, &it.Position, &it.Label, &it.Quantity, &it.UnitPrice, &it.Total)
		return it, err
	})
	if err != nil {
		return translate("load quote items", err)
	}
	q.Items = items

	sig, err := (&signatureRepo{db: r.db}).GetForQuote(ctx, q.ID)
	switch {
	case err == nil:
		q.Signature = sig
	case !isNotFound(err):
		return err
	}
	return nil
}

func (r *quoteRepo) UpdateStatus(ctx context.Context, id string, ownerID uint, expectedVersion int64, patch models.QuoteStatusPatch) error {
	tag, err := r.db.Exec(ctx, `UPDATE quotes SET
			status = $4,
			sent_at = COALESCE($5, sent_at),
			last_sent_at = COALESCE($6, last_sent_at),
			viewed_at = COALESCE($7, viewed_at),
			accepted_at = COALESCE($8, accepted_at),
			refused_at = COALESCE($9, refused_at),
			version = version + 1,
			updated_at = now()
		WHERE id = $1 AND user_id = $2 AND version = $3`,
		id, ownerID, expectedVersion, patch.Status,
		patch.SentAt, patch.LastSentAt, patch.ViewedAt, patch.AcceptedAt, patch.RefusedAt)
	if err != nil {
		return translate("update quote status", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quotes WHERE id = $1 AND user_id = $2)`, id, ownerID).Scan(&exists); err != nil {
			return translate("update quote status", err)
		}
		if !exists {
			return fmt.Errorf("update quote status: %w", common.ErrNotFound)
		}
		return fmt.Errorf("update quote status: %w", common.ErrVersionConflict)
	}
	return nil
}

func (r *quoteRepo) List(ctx context.Context, ownerID uint, status models.QuoteStatus) ([]models.Quote, error) {
	rows, err := r.db.Query(ctx, `SELECT `+prefixed("q", quoteColumns)+`, `+prefixed("c", clientColumns)+`
		FROM quotes q JOIN clients c ON c.id = q.client_id
		WHERE q.user_id = $1 AND ($2 = '' OR q.status = $2)
		ORDER BY q.created_at DESC`, ownerID, string(status))
	if err != nil {
		return nil, translate("list quotes", err)
	}
	quotes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Quote, error) {
		var q models.Quote
		var c models.Client
		err := row.Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt, &q.UserID, &q.ClientID, &q.Title, &q.Description,
			&q.AmountHT, &q.AmountTTC, &q.Status, &q.PDFKey, &q.SentAt, &q.LastSentAt, &q.ViewedAt,
			&q.AcceptedAt, &q.RefusedAt, &q.Version,
			&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.Address)
		q.Client = &c
		return q, err
	})
	if err != nil {
		return nil, translate("list quotes", err)
	}
	return quotes, nil
}

func (r *quoteRepo) Delete(ctx context.Context, id string, ownerID uint) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotes WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return translate("delete quote", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete quote: %w", common.ErrNotFound)
	}
	return nil
}

func (r *quoteRepo) SetDocument(ctx context.Context, id string, ownerID uint, key string) error {
	tag, err := r.db.Exec(ctx, `UPDATE quotes SET pdf_key = $3, updated_at = now() WHERE id = $1 AND user_id = $2`, id, ownerID, key)
	if err != nil {
		return translate("set quote document", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set quote document: %w", common.ErrNotFound)
	}
	return nil
}

func (r *quoteRepo) CountByStatus(ctx context.Context, ownerID uint) (map[models.QuoteStatus]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM quotes WHERE user_id = $1 GROUP BY status`, ownerID)
	if err != nil {
		return nil, translate("count quotes", err)
	}
	defer rows.Close()
	out := make(map[models.QuoteStatus]int64)
	for rows.Next() {
		var status models.QuoteStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, translate("count quotes", err)
		}
		out[status] = n
	}
	return out, translate("count quotes", rows.Err())
}
