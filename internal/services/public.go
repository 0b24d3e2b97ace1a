package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/lifecycle"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/objstore"
)

// MaxSignatureBytes caps the decoded signature image.
const MaxSignatureBytes = 512 << 10

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// View returns a quote through its capability link and records the first
// view of a sent quote.
func (s *QuoteService) View(ctx context.Context, id string) (*models.Quote, error) {
	res, err := s.Engine.MarkViewed(ctx, lifecycle.Public(id))
	if err != nil {
		return nil, err
	}
	if res.Changed() {
		s.Activity.Record(ctx, res.Quote.UserID, models.ActivityQuoteViewed, id, res.Quote.ClientID, nil)
	}
	return res.Quote, nil
}

// PublicPDF renders a quote reached through its capability link.
func (s *QuoteService) PublicPDF(ctx context.Context, id string) ([]byte, error) {
	q, err := s.Store.Quotes().GetPublic(ctx, id)
	if err != nil {
		return nil, err
	}
	_, doc, err := s.documentFor(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.Renderer.Render(doc)
}

// AcceptInput is what the recipient submits. Signature is an optional
// PNG data URL drawn on the acceptance page.
type AcceptInput struct {
	Signature  string `json:"signature"`
	SignerName string `json:"signer_name"`
	IPAddress  string `json:"-"`
}

// Accept records the recipient's acceptance, storing the signature image
// first when one is given.
func (s *QuoteService) Accept(ctx context.Context, id string, in AcceptInput) (*models.Quote, error) {
	q, err := s.Store.Quotes().GetPublic(ctx, id)
	if err != nil {
		return nil, err
	}
	if lifecycle.Decide(q.Status, lifecycle.EventAccepted).Decision == lifecycle.Reject {
		return nil, fmt.Errorf("accept %s quote: %w", q.Status, common.ErrInvalidTransition)
	}

	var sig *lifecycle.SignatureInput
	if in.Signature != "" {
		img, err := decodeSignature(in.Signature)
		if err != nil {
			return nil, err
		}
		if s.Objects == nil {
			return nil, fmt.Errorf("signature storage: %w", common.ErrConfigMissing)
		}
		key := objstore.SignatureKey(q.ID)
		if err := s.Objects.Put(ctx, key, "image/png", img); err != nil {
			return nil, fmt.Errorf("store signature image: %w", err)
		}
		sig = &lifecycle.SignatureInput{ImageKey: key, IPAddress: in.IPAddress, SignerName: strings.TrimSpace(in.SignerName)}
	}

	res, err := s.Engine.Accept(ctx, lifecycle.Public(id), sig)
	if err != nil {
		return nil, err
	}
	s.Activity.Record(ctx, res.Quote.UserID, models.ActivityQuoteAccepted, id, res.Quote.ClientID, map[string]any{
		"signed":     sig != nil,
		"ip_address": in.IPAddress,
	})
	return res.Quote, nil
}

// decodeSignature accepts "data:image/png;base64,..." or bare base64.
func decodeSignature(s string) ([]byte, error) {
	invalid := common.NewValidationError(map[string]string{"signature": "invalid_image"})
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found || meta != "image/png;base64" {
			return nil, invalid
		}
		s = data
	}
	if base64.StdEncoding.DecodedLen(len(s)) > MaxSignatureBytes {
		return nil, common.NewValidationError(map[string]string{"signature": "too_large"})
	}
	img, err := base64.StdEncoding.DecodeString(s)
	if err != nil || !bytes.HasPrefix(img, pngMagic) {
		return nil, invalid
	}
	return img, nil
}
