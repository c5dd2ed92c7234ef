// Package http serves the madrassa JSON API: reports, notifications and settings.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"madrassa/internal/core"
	applog "madrassa/internal/log"
	"madrassa/internal/middleware/security"
	"madrassa/internal/notify"
	"madrassa/internal/reports"
	"madrassa/internal/services"
)

// ReportGenerator builds the three report kinds and delivers them.
type ReportGenerator interface {
	Daily(ctx context.Context, day core.Date) (reports.DailyReport, string, error)
	Weekly(ctx context.Context, end core.Date) (reports.WeeklyReport, string, error)
	Monthly(ctx context.Context, month core.Month) (reports.MonthlySummary, string, error)
	Deliver(ctx context.Context, g services.Generated, phones []string) (services.Delivery, error)
}

// Notifier sends free-form messages and templated events.
type Notifier interface {
	Send(ctx context.Context, phones []string, message string) (notify.Result, error)
	Trigger(ctx context.Context, ev notify.Event) notify.Outcome
	InvalidateOrgName()
}

// ConfigStore reads and writes the settings singleton.
type ConfigStore interface {
	GetConfig(ctx context.Context) (core.Config, error)
	SaveConfig(ctx context.Context, c core.Config) error
}

// Pinger reports store readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Reports  ReportGenerator
	Notifier Notifier
	Config   ConfigStore
	Ready    Pinger

	// Location decides which calendar day "today" is.
	Location *time.Location
	// RateLimit is requests per minute per client IP on /api.
	RateLimit int
	Headers   security.HeadersConfig
	Logger    *applog.Logger
}

type Server struct {
	http.Server
	deps     Deps
	validate *validator.Validate
	detector *security.Detector
	now      func() time.Time
	logger   *applog.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.Discard()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.RateLimit < 1 {
		deps.RateLimit = 60
	}

	s := &Server{
		deps:     deps,
		validate: validator.New(),
		detector: security.NewDetector(),
		now:      time.Now,
		logger:   deps.Logger.WithComponent(applog.ComponentHTTP),
	}

	r := chi.NewRouter()
	r.Use(applog.Middleware(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(s.detector.Middleware)
	r.Use(security.Headers(deps.Headers))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.Limit(deps.RateLimit, time.Minute,
			httprate.WithKeyFuncs(s.detector.KeyByClientIP)))

		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily", s.handleDailyReport)
			r.Get("/weekly", s.handleWeeklyReport)
			r.Get("/monthly", s.handleMonthlyReport)
		})
		r.Route("/notifications", func(r chi.Router) {
			r.Post("/send", s.handleSendNotification)
			r.Post("/events", s.handleNotificationEvent)
		})
		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handleUpdateConfig)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not found").Write(w)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// today is now in the configured location.
func (s *Server) today() time.Time {
	return s.now().In(s.deps.Location)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
