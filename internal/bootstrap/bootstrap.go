// Package bootstrap builds the long-lived service graph from configuration.
// The HTTP server and the admin CLI share it.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/facilidevis/facilidevis/internal/billing"
	"github.com/facilidevis/facilidevis/internal/config"
	"github.com/facilidevis/facilidevis/internal/db"
	"github.com/facilidevis/facilidevis/internal/delivery"
	"github.com/facilidevis/facilidevis/internal/lifecycle"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/objstore"
	"github.com/facilidevis/facilidevis/internal/reminders"
	"github.com/facilidevis/facilidevis/internal/render"
	"github.com/facilidevis/facilidevis/internal/services"
	"github.com/facilidevis/facilidevis/internal/store"
	"github.com/facilidevis/facilidevis/internal/store/gormstore"
	"github.com/facilidevis/facilidevis/internal/store/pgstore"
)

const (
	BackendGorm = "gorm"
	BackendPgx  = "pgx"
)

// Container holds every service, wired over one Store.
type Container struct {
	Store      store.Store
	Dispatcher *delivery.Dispatcher
	Objects    objstore.Store
	Engine     *lifecycle.Engine
	Scheduler  *reminders.Scheduler

	Activity  *services.ActivityLog
	Quotes    *services.QuoteService
	Clients   *services.ClientService
	Accounts  *services.AccountService
	Dashboard *services.DashboardService
	Billing   *billing.Service
}

// OpenStore connects the backend named by cfg.App.StoreBackend and applies
// migrations when enabled.
func OpenStore(ctx context.Context, cfg *config.Config, log logging.Logger) (store.Store, error) {
	switch cfg.App.StoreBackend {
	case BackendGorm, "":
		conn, err := db.Open(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if cfg.App.Migrations {
			if err := db.Migrate(conn); err != nil {
				return nil, err
			}
		}
		return gormstore.New(conn), nil
	case BackendPgx:
		s, err := pgstore.Open(ctx, cfg.Database.URL())
		if err != nil {
			return nil, err
		}
		if cfg.App.Migrations {
			if err := s.Migrate(ctx); err != nil {
				_ = s.Close()
				return nil, err
			}
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.App.StoreBackend)
	}
}

// New wires the services over s. External providers that are not
// configured are left out: delivery is simulated outside production and
// billing answers ErrConfigMissing.
func New(ctx context.Context, cfg *config.Config, s store.Store, log logging.Logger) (*Container, error) {
	dispatcher, err := delivery.FromConfig(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("delivery: %w", err)
	}
	objects, err := objstore.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}

	c := &Container{
		Store:      s,
		Dispatcher: dispatcher,
		Objects:    objects,
		Engine:     lifecycle.NewEngine(s, log),
		Activity:   services.NewActivityLog(s, log),
	}
	// Quotes need a scheduler to plan reminders and the scheduler needs
	// quotes to nudge clients, so the nudging scheduler is built second.
	planner := reminders.NewScheduler(s, c.Engine, nil, log)
	c.Quotes = services.NewQuoteService(services.QuoteDeps{
		Store:      s,
		Engine:     c.Engine,
		Scheduler:  planner,
		Dispatcher: dispatcher,
		Renderer:   render.NewPDF(),
		Objects:    objects,
		Activity:   c.Activity,
		PublicURL:  cfg.App.PublicURL,
		Log:        log,
	})
	c.Scheduler = reminders.NewScheduler(s, c.Engine, services.NewReminderNudger(c.Quotes), log)
	c.Clients = services.NewClientService(s, c.Activity)
	c.Accounts = services.NewAccountService(s)
	c.Dashboard = services.NewDashboardService(s, c.Activity)

	var gw billing.Gateway
	if cfg.Stripe.Configured() {
		gw = billing.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	}
	c.Billing = billing.NewService(s, gw, cfg.Stripe, cfg.App.PublicURL, log)
	return c, nil
}
