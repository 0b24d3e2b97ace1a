package pgstore

import (
	"context"

	"github.com/facilidevis/facilidevis/internal/models"
)

type signatureRepo struct {
	db DBTX
}

func (r *signatureRepo) Create(ctx context.Context, s *models.Signature) error {
	if s.ID == "" {
		s.ID = models.NewID()
	}
	_, err := r.db.Exec(ctx, `INSERT INTO signatures (id, quote_id, image_key, ip_address, signer_name, signed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, s.ID, s.QuoteID, s.ImageKey, s.IPAddress, s.SignerName, s.SignedAt)
	return translate("create signature", err)
}

func (r *signatureRepo) GetForQuote(ctx context.Context, quoteID string) (*models.Signature, error) {
	var s models.Signature
	err := r.db.QueryRow(ctx, `SELECT id, quote_id, image_key, ip_address, signer_name, signed_at
		FROM signatures WHERE quote_id = $1`, quoteID).
		Scan(&s.ID, &s.QuoteID, &s.ImageKey, &s.IPAddress, &s.SignerName, &s.SignedAt)
	if err != nil {
		return nil, translate("get signature", err)
	}
	return &s, nil
}
