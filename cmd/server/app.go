package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/facilidevis/facilidevis/auth"
	"github.com/facilidevis/facilidevis/httpx"
	"github.com/facilidevis/facilidevis/internal/handlers"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/store"
)

// Deps are the process-wide handles built once in main.
type Deps struct {
	Store      store.Store
	Sessions   *auth.Sessions
	CronSecret string
	RateLimit  int
	Log        logging.Logger

	Auth      *handlers.AuthHandler
	Clients   *handlers.ClientHandler
	Quotes    *handlers.QuoteHandler
	Public    *handlers.PublicHandler
	Dashboard *handlers.DashboardHandler
	Reminders *handlers.ReminderHandler
	Billing   *handlers.BillingHandler
	Channels  handlers.ChannelReporter
}

// App is the main application handler that sets up all routes.
type App struct {
	router chi.Router
	deps   Deps
}

// NewApp creates a new application with all routes configured.
func NewApp(deps Deps) *App {
	app := &App{router: chi.NewRouter(), deps: deps}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) setupRoutes() {
	d := a.deps
	r := a.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(withLogging(d.Log))
	r.Use(d.Sessions.Middleware)

	r.Get("/healthz", a.healthz)

	// Sessions
	r.Post("/auth/register", d.Auth.Register)
	r.Post("/auth/login", d.Auth.Login)
	r.Post("/auth/logout", d.Auth.Logout)

	// Capability links opened by clients, rate limited per IP.
	r.Route("/public/quotes/{id}", func(r chi.Router) {
		r.Use(httprate.LimitByIP(d.RateLimit, time.Minute))
		r.Get("/", d.Public.View)
		r.Post("/accept", d.Public.Accept)
		r.Get("/pdf", d.Public.PDF)
	})

	// Machine endpoints
	r.With(auth.SharedSecret(d.CronSecret)).Post("/internal/reminders/process", d.Reminders.Process)
	r.Post("/billing/webhook", d.Billing.Webhook)

	// Artisan area
	r.Group(func(r chi.Router) {
		r.Use(d.Sessions.RequireAuth)

		r.Get("/auth/me", d.Auth.Me)
		r.Get("/dashboard", d.Dashboard.Get)
		r.Get("/settings/delivery", handlers.DeliverySettings(d.Channels))
		r.Post("/billing/checkout", d.Billing.Checkout)

		r.Get("/clients", d.Clients.List)
		r.Post("/clients", d.Clients.Create)
		r.Get("/clients/{id}", d.Clients.View)
		r.Delete("/clients/{id}", d.Clients.Delete)

		r.Get("/quotes", d.Quotes.List)
		r.Post("/quotes", d.Quotes.Create)
		r.Get("/quotes/{id}", d.Quotes.View)
		r.Delete("/quotes/{id}", d.Quotes.Delete)
		r.Post("/quotes/{id}/send-email", d.Quotes.SendEmail)
		r.Post("/quotes/{id}/send-sms", d.Quotes.SendSMS)
		r.Get("/quotes/{id}/pdf", d.Quotes.PDF)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	})
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := a.deps.Store.Ping(r.Context()); err != nil {
		a.deps.Log.Error(r.Context(), "health check failed", "error", err)
		httpx.JSONError(w, http.StatusServiceUnavailable, "database_unavailable", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withLogging adds request logging middleware.
func withLogging(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
