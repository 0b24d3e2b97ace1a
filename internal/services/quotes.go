package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/delivery"
	"github.com/facilidevis/facilidevis/internal/lifecycle"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/objstore"
	"github.com/facilidevis/facilidevis/internal/reminders"
	"github.com/facilidevis/facilidevis/internal/render"
	"github.com/facilidevis/facilidevis/internal/store"
	"github.com/facilidevis/facilidevis/validation"
)

// Dispatcher sends messages to clients.
type Dispatcher interface {
	Send(ctx context.Context, msg delivery.Message) (delivery.Receipt, error)
}

// QuoteDeps groups the collaborators of QuoteService. Objects may be nil,
// in which case rendered PDFs are not archived and signatures are refused.
type QuoteDeps struct {
	Store      store.Store
	Engine     *lifecycle.Engine
	Scheduler  *reminders.Scheduler
	Dispatcher Dispatcher
	Renderer   render.Renderer
	Objects    objstore.Store
	Activity   *ActivityLog
	PublicURL  string
	Log        logging.Logger
}

type QuoteService struct {
	QuoteDeps
	now func() time.Time
}

func NewQuoteService(deps QuoteDeps) *QuoteService {
	return &QuoteService{QuoteDeps: deps, now: func() time.Time { return time.Now().UTC() }}
}

// CreateQuoteInput is what the artisan submits to create a quote.
type CreateQuoteInput struct {
	ClientID      string      `json:"client_id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Items         []LineInput `json:"items"`
	AutoReminders bool        `json:"auto_reminders"`
}

func (in CreateQuoteInput) validate() error {
	v := validation.Violations{}
	validation.Required("client_id", in.ClientID, v)
	validation.Required("title", in.Title, v)
	validation.MinLen("title", in.Title, 3, v)
	validation.MaxLen("title", in.Title, 255, v)
	validation.MaxLen("description", in.Description, 2000, v)
	if len(in.Items) == 0 {
		v["items"] = "required"
	}
	for i, it := range in.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		validation.Required(prefix+"label", it.Label, v)
		validation.MaxLen(prefix+"label", it.Label, 500, v)
		validation.PositiveFloat(prefix+"quantity", it.Quantity, v)
		validation.NonNegativeFloat(prefix+"unit_price", it.UnitPrice, v)
	}
	return v.Err()
}

// PublicLink is the capability URL of a quote.
func (s *QuoteService) PublicLink(id string) string {
	return s.PublicURL + "/public/quotes/" + id
}

// Create stores a draft quote with server-computed totals and, when asked,
// schedules its reminders in the same transaction.
func (s *QuoteService) Create(ctx context.Context, owner uint, in CreateQuoteInput) (*models.Quote, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	client, err := s.Store.Clients().GetByID(ctx, in.ClientID, owner)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	items, ht, ttc := ComputeTotals(in.Items)
	q := &models.Quote{
		ID:          models.NewID(),
		CreatedAt:   s.now(),
		UserID:      owner,
		ClientID:    client.ID,
		Title:       in.Title,
		Description: in.Description,
		AmountHT:    ht,
		AmountTTC:   ttc,
		Status:      models.QuoteStatusDraft,
		Version:     1,
		Items:       items,
	}

	err = s.Store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Quotes().Create(ctx, q); err != nil {
			return err
		}
		_, err := s.Scheduler.In(tx).Schedule(ctx, q.ID, owner, q.CreatedAt, in.AutoReminders)
		return err
	})
	if err != nil {
		return nil, err
	}
	q.Client = client

	s.Log.Info(ctx, "quote created", "quote_id", q.ID, "owner", owner, "amount_ttc", q.AmountTTC, "reminders", in.AutoReminders)
	s.Activity.Record(ctx, owner, models.ActivityQuoteCreated, q.ID, client.ID, map[string]any{"title": q.Title, "amount_ttc": q.AmountTTC})
	return q, nil
}

func (s *QuoteService) Get(ctx context.Context, id string, owner uint) (*models.Quote, error) {
	return s.Store.Quotes().GetByID(ctx, id, owner)
}

// List returns the owner's quotes, optionally filtered by status.
func (s *QuoteService) List(ctx context.Context, owner uint, status models.QuoteStatus) ([]models.Quote, error) {
	if status != "" && !status.Valid() {
		return nil, common.NewValidationError(map[string]string{"status": "invalid_status"})
	}
	return s.Store.Quotes().List(ctx, owner, status)
}

func (s *QuoteService) Delete(ctx context.Context, id string, owner uint) error {
	return s.Store.Quotes().Delete(ctx, id, owner)
}

// Reminders lists the reminder batch of a quote.
func (s *QuoteService) Reminders(ctx context.Context, id string, owner uint) ([]models.Reminder, error) {
	if _, err := s.Store.Quotes().GetByID(ctx, id, owner); err != nil {
		return nil, err
	}
	return s.Store.Reminders().ListForQuote(ctx, id, owner)
}

// SendResult is the outcome of a successful send.
type SendResult struct {
	Quote   *models.Quote    `json:"quote"`
	Receipt delivery.Receipt `json:"receipt"`
}

// SendEmail emails the quote with its PDF to the client. The status only
// moves once the dispatcher reports success.
func (s *QuoteService) SendEmail(ctx context.Context, id string, owner uint) (SendResult, error) {
	q, doc, err := s.document(ctx, id, owner)
	if err != nil {
		return SendResult{}, err
	}
	pdf, err := s.Renderer.Render(doc)
	if err != nil {
		return SendResult{}, err
	}
	s.archive(ctx, q, pdf)

	mail, err := render.QuoteEmail(doc)
	if err != nil {
		return SendResult{}, err
	}
	return s.dispatch(ctx, q, delivery.Message{
		Channel: models.ChannelEmail,
		To:      q.Client.ContactFor(models.ChannelEmail),
		Subject: mail.Subject,
		Body:    mail.Text,
		HTML:    mail.HTML,
		Attachments: []delivery.Attachment{
			{Name: "devis-" + doc.Number() + ".pdf", ContentType: "application/pdf", Data: pdf},
		},
	})
}

// SendSMS texts the quote link to the client.
func (s *QuoteService) SendSMS(ctx context.Context, id string, owner uint) (SendResult, error) {
	q, doc, err := s.document(ctx, id, owner)
	if err != nil {
		return SendResult{}, err
	}
	return s.dispatch(ctx, q, delivery.Message{
		Channel: models.ChannelSMS,
		To:      q.Client.ContactFor(models.ChannelSMS),
		Body:    render.QuoteSMS(doc),
	})
}

func (s *QuoteService) dispatch(ctx context.Context, q *models.Quote, msg delivery.Message) (SendResult, error) {
	rcpt, err := s.Dispatcher.Send(ctx, msg)
	if err != nil {
		return SendResult{}, err
	}
	res, err := s.Engine.RecordDelivery(ctx, lifecycle.Owned(q.ID, q.UserID))
	if err != nil {
		return SendResult{}, fmt.Errorf("record delivery: %w", err)
	}
	s.Activity.Record(ctx, q.UserID, models.ActivityQuoteSent, q.ID, q.ClientID, map[string]any{
		"channel":   string(msg.Channel),
		"simulated": rcpt.Simulated,
	})
	return SendResult{Quote: res.Quote, Receipt: rcpt}, nil
}

// PDF renders the current state of an owned quote.
func (s *QuoteService) PDF(ctx context.Context, id string, owner uint) ([]byte, error) {
	_, doc, err := s.document(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	return s.Renderer.Render(doc)
}

// document loads a quote with everything needed to render it.
func (s *QuoteService) document(ctx context.Context, id string, owner uint) (*models.Quote, render.QuoteDocument, error) {
	q, err := s.Store.Quotes().GetByID(ctx, id, owner)
	if err != nil {
		return nil, render.QuoteDocument{}, err
	}
	return s.documentFor(ctx, q)
}

func (s *QuoteService) documentFor(ctx context.Context, q *models.Quote) (*models.Quote, render.QuoteDocument, error) {
	issuer, err := s.Store.Users().GetByID(ctx, q.UserID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, render.QuoteDocument{}, err
	}
	return q, render.QuoteDocument{Quote: q, Issuer: issuer, URL: s.PublicLink(q.ID)}, nil
}

// archive keeps a copy of the sent PDF. It never fails the send.
func (s *QuoteService) archive(ctx context.Context, q *models.Quote, pdf []byte) {
	if s.Objects == nil {
		return
	}
	key := objstore.QuotePDFKey(q.UserID, q.ID)
	if err := s.Objects.Put(ctx, key, "application/pdf", pdf); err != nil {
		s.Log.Warn(ctx, "quote pdf not archived", "quote_id", q.ID, "error", err)
		return
	}
	if err := s.Store.Quotes().SetDocument(ctx, q.ID, q.UserID, key); err != nil {
		s.Log.Warn(ctx, "quote pdf key not saved", "quote_id", q.ID, "error", err)
		return
	}
	q.PDFKey = key
}
