// Package store declares the persistence contracts used by the quote
// lifecycle engine, the reminder scheduler and the HTTP layer. Two
// implementations exist: gormstore (gorm, PostgreSQL or SQLite) and pgstore
// (pgx + goose). Business rules never live in a backend.
//
// Every lookup keyed by (id, ownerID) returns common.ErrNotFound when the
// record is missing or owned by someone else.
package store

import (
	"context"
	"time"

	"github.com/facilidevis/facilidevis/internal/models"
)

// QuoteStore persists quotes and their line items.
type QuoteStore interface {
	// Create inserts the quote and its items. Client, reminders and
	// signature associations are ignored.
	Create(ctx context.Context, q *models.Quote) error

	// GetByID loads a quote with its client, items and signature.
	GetByID(ctx context.Context, id string, ownerID uint) (*models.Quote, error)

	// GetPublic loads a quote by its capability identifier alone. Callers
	// must scope any later write to the returned quote's owner.
	GetPublic(ctx context.Context, id string) (*models.Quote, error)

	// UpdateStatus applies patch if the stored version still equals
	// expectedVersion, then bumps the version. A stale version yields
	// common.ErrVersionConflict.
	UpdateStatus(ctx context.Context, id string, ownerID uint, expectedVersion int64, patch models.QuoteStatusPatch) error

	// List returns the owner's quotes, newest first. An empty status
	// returns every status.
	List(ctx context.Context, ownerID uint, status models.QuoteStatus) ([]models.Quote, error)

	Delete(ctx context.Context, id string, ownerID uint) error

	// SetDocument records the object-storage key of the rendered PDF.
	SetDocument(ctx context.Context, id string, ownerID uint, key string) error

	// CountByStatus returns the number of quotes per status for an owner.
	CountByStatus(ctx context.Context, ownerID uint) (map[models.QuoteStatus]int64, error)
}

// ReminderStore persists scheduled reminders.
type ReminderStore interface {
	// CreateBatch inserts all reminders or none. A (quote_id, seq) clash
	// yields common.ErrDuplicate.
	CreateBatch(ctx context.Context, reminders []models.Reminder) error

	CountForQuote(ctx context.Context, quoteID string) (int64, error)

	// FindDue returns pending reminders due at or before now, oldest first.
	FindDue(ctx context.Context, now time.Time) ([]models.Reminder, error)

	// MarkDone moves a pending reminder to done. It reports false when the
	// reminder was no longer pending.
	MarkDone(ctx context.Context, id string, at time.Time) (bool, error)

	ListForQuote(ctx context.Context, quoteID string, ownerID uint) ([]models.Reminder, error)
}

// SignatureStore persists acceptance signatures.
type SignatureStore interface {
	Create(ctx context.Context, s *models.Signature) error
	GetForQuote(ctx context.Context, quoteID string) (*models.Signature, error)
}

// ClientStore persists the artisan's client directory.
type ClientStore interface {
	Create(ctx context.Context, c *models.Client) error
	GetByID(ctx context.Context, id string, ownerID uint) (*models.Client, error)
	List(ctx context.Context, ownerID uint) ([]models.Client, error)
	Delete(ctx context.Context, id string, ownerID uint) error
}

// UserStore persists artisan accounts.
type UserStore interface {
	// Create yields common.ErrDuplicate when the email is taken.
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// ActivityStore is the append-only activity log.
type ActivityStore interface {
	Append(ctx context.Context, a *models.Activity) error
	ListRecent(ctx context.Context, ownerID uint, limit int) ([]models.Activity, error)
}

// SubscriptionStore persists billing state.
type SubscriptionStore interface {
	GetByUser(ctx context.Context, userID uint) (*models.Subscription, error)
	GetByCustomer(ctx context.Context, customerID string) (*models.Subscription, error)

	// Upsert inserts or updates the subscription keyed by user.
	Upsert(ctx context.Context, s *models.Subscription) error
}

// Store aggregates every repository over one connection or transaction.
type Store interface {
	Quotes() QuoteStore
	Reminders() ReminderStore
	Signatures() SignatureStore
	Clients() ClientStore
	Users() UserStore
	Activities() ActivityStore
	Subscriptions() SubscriptionStore

	// WithTx runs fn against a transactional Store. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}
