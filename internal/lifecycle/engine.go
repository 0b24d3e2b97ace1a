package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/store"
)

// maxAttempts bounds the re-read/re-decide loop on version conflicts.
const maxAttempts = 3

// Ref identifies the quote an event applies to. An owner-scoped ref is
// used by the artisan; a public ref is the capability link, where the
// quote ID alone grants access and writes are scoped to the stored owner.
type Ref struct {
	QuoteID string
	OwnerID uint
	Public  bool
}

// Owned returns a ref scoped to the artisan.
func Owned(quoteID string, ownerID uint) Ref { return Ref{QuoteID: quoteID, OwnerID: ownerID} }

// Public returns a ref for the unauthenticated quote link.
func Public(quoteID string) Ref { return Ref{QuoteID: quoteID, Public: true} }

// Result describes what an event did.
type Result struct {
	Quote    *models.Quote
	From     models.QuoteStatus
	Decision Decision
}

// Changed reports whether the quote's status moved.
func (r Result) Changed() bool {
	return r.Decision == Apply && r.Quote.Status != r.From
}

// SignatureInput is the optional drawn signature submitted on acceptance.
// ImageKey must already point at the stored image.
type SignatureInput struct {
	ImageKey   string
	IPAddress  string
	SignerName string
}

// Engine applies lifecycle events to quotes.
type Engine struct {
	store store.Store
	log   logging.Logger
	now   func() time.Time
}

func NewEngine(s store.Store, log logging.Logger) *Engine {
	return &Engine{store: s, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// SetClock replaces the time source. Intended for tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// In returns an engine bound to another store, typically a transaction.
func (e *Engine) In(s store.Store) *Engine {
	cp := *e
	cp.store = s
	return &cp
}

// RecordDelivery records a successful dispatch. It must only be called
// after the delivery collaborator reported success.
func (e *Engine) RecordDelivery(ctx context.Context, ref Ref) (Result, error) {
	return e.fire(ctx, ref, EventDelivered)
}

// MarkViewed records that the recipient opened the link.
func (e *Engine) MarkViewed(ctx context.Context, ref Ref) (Result, error) {
	return e.fire(ctx, ref, EventViewed)
}

// MarkReminded records that a due reminder was processed.
func (e *Engine) MarkReminded(ctx context.Context, ref Ref) (Result, error) {
	return e.fire(ctx, ref, EventReminderDue)
}

// Refuse moves a quote to refused. Nothing routes to it yet.
func (e *Engine) Refuse(ctx context.Context, ref Ref) (Result, error) {
	return e.fire(ctx, ref, EventRefused)
}

// Accept moves the quote to accepted and, when sig is non-nil, stores the
// signature in the same transaction.
func (e *Engine) Accept(ctx context.Context, ref Ref, sig *SignatureInput) (Result, error) {
	var res Result
	err := e.retry(ctx, ref, EventAccepted, func() error {
		return e.store.WithTx(ctx, func(tx store.Store) error {
			var err error
			res, err = e.attempt(ctx, tx, ref, EventAccepted)
			if err != nil || res.Decision != Apply || sig == nil {
				return err
			}
			signature := &models.Signature{
				QuoteID:    res.Quote.ID,
				ImageKey:   sig.ImageKey,
				IPAddress:  sig.IPAddress,
				SignerName: sig.SignerName,
				SignedAt:   *res.Quote.AcceptedAt,
			}
			if err := tx.Signatures().Create(ctx, signature); err != nil {
				return fmt.Errorf("store signature: %w", err)
			}
			res.Quote.Signature = signature
			return nil
		})
	})
	return res, err
}

func (e *Engine) fire(ctx context.Context, ref Ref, ev Event) (Result, error) {
	var res Result
	err := e.retry(ctx, ref, ev, func() error {
		var err error
		res, err = e.attempt(ctx, e.store, ref, ev)
		return err
	})
	return res, err
}

// retry re-runs fn while it loses the optimistic version race.
func (e *Engine) retry(ctx context.Context, ref Ref, ev Event, fn func() error) error {
	var err error
	for i := 1; i <= maxAttempts; i++ {
		err = fn()
		if !errors.Is(err, common.ErrVersionConflict) {
			return err
		}
		e.log.Debug(ctx, "quote version conflict, retrying", "quote_id", ref.QuoteID, "event", ev, "attempt", i)
	}
	return err
}

// attempt loads the quote, decides and writes once.
func (e *Engine) attempt(ctx context.Context, s store.Store, ref Ref, ev Event) (Result, error) {
	q, err := load(ctx, s, ref)
	if err != nil {
		return Result{}, err
	}
	res := Result{Quote: q, From: q.Status}
	rule := Decide(q.Status, ev)
	res.Decision = rule.Decision

	switch rule.Decision {
	case Reject:
		return res, fmt.Errorf("%s on %s quote: %w", ev, q.Status, common.ErrInvalidTransition)
	case NoOp:
		return res, nil
	}

	patch := patchFor(q, rule, ev, e.now())
	if err := s.Quotes().UpdateStatus(ctx, q.ID, q.UserID, q.Version, patch); err != nil {
		return res, err
	}
	patch.Apply(q)
	e.log.Info(ctx, "quote transition", "quote_id", q.ID, "event", ev, "from", res.From, "to", q.Status)
	return res, nil
}

func load(ctx context.Context, s store.Store, ref Ref) (*models.Quote, error) {
	if ref.Public {
		return s.Quotes().GetPublic(ctx, ref.QuoteID)
	}
	return s.Quotes().GetByID(ctx, ref.QuoteID, ref.OwnerID)
}
