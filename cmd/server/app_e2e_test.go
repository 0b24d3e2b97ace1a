package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilidevis/facilidevis/auth"
	"github.com/facilidevis/facilidevis/internal/bootstrap"
	"github.com/facilidevis/facilidevis/internal/config"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/store/storetest"
)

const cronSecret = "cron-test-secret"

func setupE2E(t *testing.T) *httptest.Server {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DIR", t.TempDir())
	t.Setenv("CRON_SECRET", cronSecret)
	t.Setenv("PUBLIC_URL", "http://devis.test")
	cfg := config.Load()
	log := logging.Discard()

	s := storetest.NewGorm(t)
	c, err := bootstrap.New(t.Context(), cfg, s, log)
	require.NoError(t, err)
	sessions := auth.NewSessions("e2e-secret", false)

	srv := httptest.NewServer(NewApp(newDeps(c, sessions, cfg, log)))
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path, body string, header ...string) (int, map[string]any) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.base+path, strings.NewReader(body))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	srv := setupE2E(t)
	c := &client{t: t, base: srv.URL}
	code, body := c.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = c.do(http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["error"])
}

func TestQuoteJourneyE2E(t *testing.T) {
	srv := setupE2E(t)
	artisan := &client{t: t, base: srv.URL}

	code, body := artisan.do(http.MethodPost, "/auth/register",
		`{"email":"artisan@example.fr","password":"secret123","company_name":"Plomberie Martin"}`)
	require.Equal(t, http.StatusCreated, code, body)
	artisan.token = body["token"].(string)

	code, body = artisan.do(http.MethodPost, "/clients", `{"name":"Jean Dupont","email":"jean@example.fr","phone":"06 12 34 56 78"}`)
	require.Equal(t, http.StatusCreated, code, body)
	clientID := body["id"].(string)

	code, body = artisan.do(http.MethodPost, "/quotes", `{"client_id":"`+clientID+`","title":"Rénovation salle de bain","auto_reminders":true,
		"items":[{"label":"Main d'oeuvre","quantity":2,"unit_price":50},{"label":"Fournitures","quantity":1,"unit_price":200}]}`)
	require.Equal(t, http.StatusCreated, code, body)
	quote := body["quote"].(map[string]any)
	quoteID := quote["id"].(string)
	assert.Equal(t, 360.0, quote["amount_ttc"])
	assert.Equal(t, "http://devis.test/public/quotes/"+quoteID, body["public_link"])

	code, body = artisan.do(http.MethodPost, "/quotes/"+quoteID+"/send-sms", "")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "sent", body["quote"].(map[string]any)["status"])

	visitor := &client{t: t, base: srv.URL}
	code, body = visitor.do(http.MethodGet, "/public/quotes/"+quoteID, "")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "viewed", body["status"])

	code, body = visitor.do(http.MethodPost, "/public/quotes/"+quoteID+"/accept",
		`{"signature":"iVBORw0KGgoAAAANSUhEUg==","signer_name":"Jean Dupont"}`,
		"X-Forwarded-For", "203.0.113.5")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "accepted", body["status"])

	code, body = artisan.do(http.MethodGet, "/quotes/"+quoteID, "")
	require.Equal(t, http.StatusOK, code, body)
	sig := body["signature"].(map[string]any)
	assert.Equal(t, "203.0.113.5", sig["ip_address"])

	code, body = artisan.do(http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, code, body)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, 1.0, stats["sent"])
	assert.Equal(t, 100.0, stats["conversion_rate"])

	code, _ = visitor.do(http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestReminderEndpointRequiresSecret(t *testing.T) {
	srv := setupE2E(t)
	cron := &client{t: t, base: srv.URL}

	code, _ := cron.do(http.MethodPost, "/internal/reminders/process", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	cron.token = "wrong"
	code, _ = cron.do(http.MethodPost, "/internal/reminders/process", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	cron.token = cronSecret
	code, body := cron.do(http.MethodPost, "/internal/reminders/process", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, body["processed"])
}

func TestBillingWebhookUnconfigured(t *testing.T) {
	srv := setupE2E(t)
	c := &client{t: t, base: srv.URL}
	code, body := c.do(http.MethodPost, "/billing/webhook", `{}`, "Stripe-Signature", "t=1,v1=abc")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "feature_unavailable", body["error"])
}
