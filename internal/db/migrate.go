// Package db opens the gorm connection and applies the schema.
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/facilidevis/facilidevis/internal/config"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/models"
)

// connectAttempts gives a freshly started Postgres container time to accept connections.
const connectAttempts = 5

var retryDelay = 2 * time.Second

// Open connects to the database described by cfg, retrying a few times.
func Open(ctx context.Context, cfg config.DatabaseConfig, log logging.Logger) (*gorm.DB, error) {
	dialector := dialectorFor(cfg)
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	var conn *gorm.DB
	var err error
	for i := 0; i < connectAttempts; i++ {
		conn, err = gorm.Open(dialector, gcfg)
		if err == nil {
			break
		}
		log.Warn(ctx, "database connection failed, retrying", "attempt", i+1, "max", connectAttempts, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return conn, nil
}

func dialectorFor(cfg config.DatabaseConfig) gorm.Dialector {
	if cfg.Driver == "sqlite" {
		sep := "?"
		if strings.Contains(cfg.SQLitePath, "?") {
			sep = "&"
		}
		return sqlite.Open(cfg.SQLitePath + sep + "_foreign_keys=on")
	}
	return postgres.Open(cfg.DSN())
}

// Migrate creates or updates the schema for every model.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Quote{},
		&models.QuoteItem{},
		&models.Reminder{},
		&models.Signature{},
		&models.Activity{},
		&models.Subscription{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
