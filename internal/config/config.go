// Package config provides application configuration loaded from environment
// variables, optionally layered over a HuJSON defaults file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Email    EmailConfig
	SMS      SMSConfig
	Storage  StorageConfig
	Stripe   StripeConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds

	// PublicRateLimit is the number of requests per minute and per IP
	// allowed on the capability-link routes.
	PublicRateLimit int
}

// DatabaseConfig holds PostgreSQL connection settings. When Driver is
// "sqlite", only SQLitePath is used.
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Env        string
	Migrations bool

	// StoreBackend selects the Store implementation: "gorm" or "pgx".
	StoreBackend string

	// PublicURL is the externally reachable base URL used to build the
	// quote links sent to clients.
	PublicURL string

	SessionSecret string
	CronSecret    string
}

// EmailConfig holds SMTP settings. An API key alone selects the Resend
// SMTP relay.
type EmailConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	ResendKey string
}

// Configured reports whether outgoing email can be sent.
func (e EmailConfig) Configured() bool {
	return e.ResendKey != "" || (e.Host != "" && e.From != "")
}

// SMSConfig holds Twilio credentials.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

// Configured reports whether outgoing SMS can be sent.
func (s SMSConfig) Configured() bool {
	return s.AccountSID != "" && s.AuthToken != "" && s.From != ""
}

// StorageConfig selects where rendered PDFs and signature images live.
// An empty S3Bucket keeps files on local disk under Dir.
type StorageConfig struct {
	Dir            string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
}

// StripeConfig holds payment settings.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceStarter  string
	PricePro      string
}

// Configured reports whether checkout sessions can be created.
func (s StripeConfig) Configured() bool {
	return s.SecretKey != ""
}

// DevSessionSecret signs sessions when SESSION_SECRET is unset. It is
// refused in production.
const DevSessionSecret = "devsessionsecret"

// ErrInsecureSessionSecret is returned by Validate when production runs
// without a real session secret.
var ErrInsecureSessionSecret = errors.New("SESSION_SECRET must be set to a non-default value in production")

// Validate rejects settings that are only acceptable outside production.
func (a AppConfig) Validate() error {
	if a.IsProduction() && (a.SessionSecret == "" || a.SessionSecret == DevSessionSecret) {
		return ErrInsecureSessionSecret
	}
	return nil
}

// IsProduction reports whether the app runs in production mode. Outside
// production, unconfigured delivery channels are simulated.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return load(layered{envSource{}})
}

func load(src layered) *Config {
	return &Config{
		Server: ServerConfig{
			Port:            src.getEnv("PORT", "8080"),
			ReadTimeout:     src.getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:    src.getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:     src.getEnvInt("SERVER_IDLE_TIMEOUT", 60),
			PublicRateLimit: src.getEnvInt("PUBLIC_RATE_LIMIT", 100),
		},
		Database: DatabaseConfig{
			Driver:     src.getEnv("DB_DRIVER", "postgres"),
			Host:       src.getEnv("DB_HOST", "localhost"),
			Port:       src.getEnvInt("DB_PORT", 5432),
			User:       src.getEnv("DB_USER", "facilidevis"),
			Password:   src.getEnv("DB_PASSWORD", "facilidevis"),
			DBName:     src.getEnv("DB_NAME", "facilidevis"),
			SSLMode:    src.getEnv("DB_SSLMODE", "disable"),
			SQLitePath: src.getEnv("DB_SQLITE_PATH", "facilidevis.db"),
		},
		App: AppConfig{
			Env:           src.getEnv("APP_ENV", "development"),
			Migrations:    src.getEnvBool("MIGRATIONS", true),
			StoreBackend:  src.getEnv("STORE_BACKEND", "gorm"),
			PublicURL:     strings.TrimRight(src.getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
			SessionSecret: src.getEnv("SESSION_SECRET", DevSessionSecret),
			CronSecret:    src.getEnv("CRON_SECRET", ""),
		},
		Email: EmailConfig{
			Host:      src.getEnv("SMTP_HOST", ""),
			Port:      src.getEnvInt("SMTP_PORT", 587),
			Username:  src.getEnv("SMTP_USERNAME", ""),
			Password:  src.getEnv("SMTP_PASSWORD", ""),
			From:      src.getEnv("EMAIL_FROM", "FaciliDevis <devis@facilidevis.fr>"),
			ResendKey: src.getEnv("RESEND_API_KEY", ""),
		},
		SMS: SMSConfig{
			AccountSID: src.getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  src.getEnv("TWILIO_AUTH_TOKEN", ""),
			From:       src.getEnv("TWILIO_PHONE_NUMBER", ""),
		},
		Storage: StorageConfig{
			Dir:            src.getEnv("STORAGE_DIR", "data"),
			S3Bucket:       src.getEnv("S3_BUCKET", ""),
			S3Region:       src.getEnv("S3_REGION", "eu-west-3"),
			S3BaseEndpoint: src.getEnv("S3_BASE_ENDPOINT", ""),
			S3AccessKey:    src.getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:    src.getEnv("S3_SECRET_KEY", ""),
		},
		Stripe: StripeConfig{
			SecretKey:     src.getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: src.getEnv("STRIPE_WEBHOOK_SECRET", ""),
			PriceStarter:  src.getEnv("STRIPE_PRICE_STARTER", ""),
			PricePro:      src.getEnv("STRIPE_PRICE_PRO", ""),
		},
	}
}

// source resolves a configuration key to a raw value.
type source interface {
	lookup(key string) (string, bool)
}

type envSource struct{}

func (envSource) lookup(key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}
	return "", false
}

// layered consults each source in order; the first hit wins.
type layered []source

func (l layered) lookup(key string) (string, bool) {
	for _, s := range l {
		if v, ok := s.lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

// getEnv returns the value of a key or a default.
func (l layered) getEnv(key, defaultValue string) string {
	if value, ok := l.lookup(key); ok {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of a key or a default.
func (l layered) getEnvInt(key string, defaultValue int) int {
	if value, ok := l.lookup(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of a key or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func (l layered) getEnvBool(key string, defaultValue bool) bool {
	value, ok := l.lookup(key)
	if !ok {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
