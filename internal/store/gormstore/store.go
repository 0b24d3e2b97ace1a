// Package gormstore implements store.Store on gorm. It runs on PostgreSQL in
// production and on SQLite in tests and local development.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/store"
)

// Store is a store.Store bound to a gorm handle, which may be a transaction.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// New wraps an open gorm connection. The connection should be opened with
// TranslateError enabled so unique violations surface as common.ErrDuplicate.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and tests.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Quotes() store.QuoteStore               { return &quoteRepo{db: s.db} }
func (s *Store) Reminders() store.ReminderStore         { return &reminderRepo{db: s.db} }
func (s *Store) Signatures() store.SignatureStore       { return &signatureRepo{db: s.db} }
func (s *Store) Clients() store.ClientStore             { return &clientRepo{db: s.db} }
func (s *Store) Users() store.UserStore                 { return &userRepo{db: s.db} }
func (s *Store) Activities() store.ActivityStore        { return &activityRepo{db: s.db} }
func (s *Store) Subscriptions() store.SubscriptionStore { return &subscriptionRepo{db: s.db} }

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto the shared sentinels.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, common.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
