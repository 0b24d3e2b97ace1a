package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/facilidevis/facilidevis/auth"
	"github.com/facilidevis/facilidevis/internal/bootstrap"
	"github.com/facilidevis/facilidevis/internal/config"
	"github.com/facilidevis/facilidevis/internal/handlers"
	"github.com/facilidevis/facilidevis/internal/logging"
)

var (
	configFlag      = pflag.String("config", "", "HuJSON file with default settings (environment wins)")
	migrateOnlyFlag = pflag.Bool("migrate-only", false, "Run DB migrations and exit")
)

func main() {
	pflag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg, err := config.LoadFile(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.App.IsProduction())

	if err := run(cfg, log); err != nil {
		log.Error(context.Background(), "server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.App.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if *migrateOnlyFlag {
		cfg.App.Migrations = true
	}
	s, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()
	if *migrateOnlyFlag {
		log.Info(ctx, "migrations completed", "backend", cfg.App.StoreBackend)
		return nil
	}

	c, err := bootstrap.New(ctx, cfg, s, log)
	if err != nil {
		return err
	}
	if cfg.App.IsProduction() && cfg.App.CronSecret == "" {
		log.Warn(ctx, "CRON_SECRET is empty: the reminder endpoint is unauthenticated")
	}

	sessions := auth.NewSessions(cfg.App.SessionSecret, cfg.App.IsProduction())
	sessions.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		_, err := s.Users().GetByID(ctx, uid)
		return err == nil
	})

	app := NewApp(newDeps(c, sessions, cfg, log))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server starting", "port", cfg.Server.Port, "env", cfg.App.Env, "backend", cfg.App.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info(context.Background(), "shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info(shutdownCtx, "server stopped gracefully")
	return nil
}

func newDeps(c *bootstrap.Container, sessions *auth.Sessions, cfg *config.Config, log logging.Logger) Deps {
	return Deps{
		Store:      c.Store,
		Sessions:   sessions,
		CronSecret: cfg.App.CronSecret,
		RateLimit:  cfg.Server.PublicRateLimit,
		Log:        log,

		Auth:      handlers.NewAuthHandler(c.Accounts, sessions, log),
		Clients:   handlers.NewClientHandler(c.Clients, log),
		Quotes:    handlers.NewQuoteHandler(c.Quotes, log),
		Public:    handlers.NewPublicHandler(c.Quotes, log),
		Dashboard: handlers.NewDashboardHandler(c.Dashboard, log),
		Reminders: handlers.NewReminderHandler(c.Scheduler, log),
		Billing:   handlers.NewBillingHandler(c.Billing, c.Accounts, log),
		Channels:  c.Dispatcher,
	}
}
