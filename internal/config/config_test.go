package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 100, cfg.Server.PublicRateLimit)
	assert.Equal(t, "gorm", cfg.App.StoreBackend)
	assert.False(t, cfg.App.IsProduction())
	assert.False(t, cfg.Email.Configured())
	assert.False(t, cfg.SMS.Configured())
	assert.False(t, cfg.Stripe.Configured())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PUBLIC_URL", "https://devis.example.fr/")
	t.Setenv("MIGRATIONS", "0")
	t.Setenv("RESEND_API_KEY", "re_123")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, "https://devis.example.fr", cfg.App.PublicURL)
	assert.False(t, cfg.App.Migrations)
	assert.True(t, cfg.Email.Configured())
}

func TestAppConfig_ValidateSessionSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")
	require.ErrorIs(t, Load().App.Validate(), ErrInsecureSessionSecret)

	t.Setenv("SESSION_SECRET", DevSessionSecret)
	require.ErrorIs(t, Load().App.Validate(), ErrInsecureSessionSecret)

	t.Setenv("SESSION_SECRET", "0b7f3c9e4d2a8e61f5c0")
	require.NoError(t, Load().App.Validate())

	t.Setenv("APP_ENV", "development")
	t.Setenv("SESSION_SECRET", "")
	require.NoError(t, Load().App.Validate())
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")
	assert.Equal(t, 5432, Load().Database.Port)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", d.DSN())
	assert.Equal(t, "postgres://u:p@db:5433/n?sslmode=disable", d.URL())
}

func TestLoadFile_HuJSONDefaultsUnderEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facilidevis.jsonc")
	content := `{
		// storage on MinIO
		"S3_BUCKET": "devis",
		"PUBLIC_RATE_LIMIT": 60,
		"MIGRATIONS": false,
		"PORT": "7000",
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("PORT", "7100")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "devis", cfg.Storage.S3Bucket)
	assert.Equal(t, 60, cfg.Server.PublicRateLimit)
	assert.False(t, cfg.App.Migrations)
	assert.Equal(t, "7100", cfg.Server.Port, "environment wins over file")
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"PORT": [1, 2]}`), 0o600))
	_, err = LoadFile(path)
	require.Error(t, err)
}

func TestLoadFile_EmptyPath(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
}
