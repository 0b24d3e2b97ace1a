// Package storetest builds throwaway SQLite-backed stores and fixtures for
// tests across packages.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/facilidevis/facilidevis/internal/db"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/store/gormstore"
)

// NewGorm returns a migrated in-memory store private to the test.
func NewGorm(t testing.TB) *gormstore.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := gormstore.New(conn)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// SeedUser creates an artisan account.
func SeedUser(t testing.TB, s *gormstore.Store, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "x", Role: models.RoleArtisan, CompanyName: "Plomberie Martin"}
	if err := s.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedClient creates a client with both email and phone.
func SeedClient(t testing.TB, s *gormstore.Store, ownerID uint) *models.Client {
	t.Helper()
	c := &models.Client{UserID: ownerID, Name: "Jean Dupont", Email: "jean@example.fr", Phone: "0612345678"}
	if err := s.Clients().Create(context.Background(), c); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return c
}

// SeedQuote creates a quote in the given status with one 100 € line.
func SeedQuote(t testing.TB, s *gormstore.Store, ownerID uint, clientID string, status models.QuoteStatus) *models.Quote {
	t.Helper()
	q := &models.Quote{
		UserID:    ownerID,
		ClientID:  clientID,
		Title:     "Remplacement chauffe-eau",
		AmountHT:  100,
		AmountTTC: 120,
		Status:    status,
		Version:   1,
		CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		Items: []models.QuoteItem{
			{Position: 0, Label: "Main d'oeuvre", Quantity: 1, UnitPrice: 100, Total: 100},
		},
	}
	if err := s.Quotes().Create(context.Background(), q); err != nil {
		t.Fatalf("seed quote: %v", err)
	}
	return q
}
