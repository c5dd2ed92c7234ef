package notify

import (
	"context"
	"fmt"
	"time"

	"madrassa/internal/cache"
	"madrassa/internal/core"
	applog "madrassa/internal/log"
	"madrassa/internal/reports"
)

const orgNameKey = "org_name"

// ConfigReader supplies the organisation settings.
type ConfigReader interface {
	GetConfig(ctx context.Context) (core.Config, error)
}

// Outcome reports what happened to one triggered event.
type Outcome struct {
	Success bool   `json:"success"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Message string `json:"message,omitempty"`
}

// Service renders events with the organisation name and dispatches them.
type Service struct {
	dispatcher Dispatcher
	config     ConfigReader
	names      *cache.LRUCache[string]
	formatter  *reports.Formatter
	logger     *applog.Logger
}

// NewService caches the organisation name for nameTTL.
func NewService(d Dispatcher, cfg ConfigReader, nameTTL time.Duration, logger *applog.Logger) *Service {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Service{
		dispatcher: d,
		config:     cfg,
		names:      cache.NewLRUCache[string](1, nameTTL),
		formatter:  reports.NewFormatter(""),
		logger:     logger.WithComponent(applog.ComponentNotify),
	}
}

// Names exposes the organisation name cache so a cache.Manager can sweep it.
func (s *Service) Names() *cache.LRUCache[string] { return s.names }

// InvalidateOrgName drops the cached name after the config changes.
func (s *Service) InvalidateOrgName() { s.names.Delete(orgNameKey) }

// OrgName returns the configured name, falling back to core.DefaultOrgName
// when the config cannot be read.
func (s *Service) OrgName(ctx context.Context) string {
	name, err := s.names.GetOrLoad(ctx, orgNameKey, func(ctx context.Context) (string, error) {
		cfg, err := s.config.GetConfig(ctx)
		if err != nil {
			return "", err
		}
		return cfg.OrgName(), nil
	})
	if err != nil {
		s.logger.Warn("Failed to load organisation name, using default",
			applog.FieldError, err)
		return core.DefaultOrgName
	}
	return name
}

// Render produces the final text for ev.
func (s *Service) Render(ctx context.Context, ev Event) string {
	return ev.Render(s.OrgName(ctx), s.formatter)
}

// Trigger renders ev and sends it to its recipients.
func (s *Service) Trigger(ctx context.Context, ev Event) Outcome {
	if ev == nil {
		return Outcome{Message: ErrUnknownEvent.Error()}
	}
	phones := ev.Recipients()
	if len(phones) == 0 {
		return Outcome{Message: "No phone numbers provided"}
	}
	valid := SanitizePhones(phones)
	if len(valid) == 0 {
		return Outcome{Message: "No valid phone numbers"}
	}

	text := s.Render(ctx, ev)
	res := s.dispatcher.SendToMultiple(ctx, valid, text)

	s.logger.Info("Notification dispatched",
		applog.FieldEvent, string(ev.Kind()),
		applog.FieldRecipients, res.Total,
		applog.FieldSent, res.Sent,
		applog.FieldFailed, res.Failed)

	return Outcome{
		Success: res.Sent > 0,
		Sent:    res.Sent,
		Failed:  res.Failed,
		Message: fmt.Sprintf("Sent to %d/%d recipients", res.Sent, res.Total),
	}
}

// Send broadcasts a free-form message, as used by the admin notification form.
func (s *Service) Send(ctx context.Context, phones []string, message string) (Result, error) {
	res, err := Broadcast(ctx, s.dispatcher, phones, message)
	if err != nil {
		return res, err
	}
	s.logger.Info("Broadcast dispatched",
		applog.FieldRecipients, res.Total,
		applog.FieldSent, res.Sent,
		applog.FieldFailed, res.Failed)
	return res, nil
}
