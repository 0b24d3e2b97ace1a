// Package pgstore implements store.Store with hand-written SQL on a pgx
// connection pool. The schema is managed by goose migrations embedded in the
// binary.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/store"
	"github.com/facilidevis/facilidevis/internal/store/pgstore/migrations"
)

// DBTX is the subset of pgx used by the repositories. Both *pgxpool.Pool
// and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is a store.Store bound to a pool or a transaction.
type Store struct {
	pool *pgxpool.Pool
	db   DBTX
}

var _ store.Store = (*Store)(nil)

// Open creates the connection pool.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	return &Store{pool: pool, db: pool}, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded migrations through a database/sql view of the pool.
func (s *Store) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (s *Store) Quotes() store.QuoteStore               { return &quoteRepo{db: s.db} }
func (s *Store) Reminders() store.ReminderStore         { return &reminderRepo{db: s.db} }
func (s *Store) Signatures() store.SignatureStore       { return &signatureRepo{db: s.db} }
func (s *Store) Clients() store.ClientStore             { return &clientRepo{db: s.db} }
func (s *Store) Users() store.UserStore                 { return &userRepo{db: s.db} }
func (s *Store) Activities() store.ActivityStore        { return &activityRepo{db: s.db} }
func (s *Store) Subscriptions() store.SubscriptionStore { return &subscriptionRepo{db: s.db} }

// WithTx starts a transaction, or a savepoint when already inside one.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&Store{pool: s.pool, db: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const uniqueViolation = "23505"

// translate maps pgx errors onto the shared sentinels.
func translate(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return fmt.Errorf("%s: %w", op, common.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
