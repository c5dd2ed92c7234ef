package services

import (
	"context"
	"errors"

	"madrassa/internal/amqp"
	applog "madrassa/internal/log"
	"madrassa/internal/notify"
	"madrassa/internal/reports"
)

// DeliveryProcessor handles messages consumed from the delivery queue.
// Undeliverable messages are logged and acknowledged; the gateway outcome is
// final and never requeued.
type DeliveryProcessor struct {
	reports  *ReportService
	notifier *notify.Service
	logger   *applog.Logger
}

var _ amqp.Handler = (*DeliveryProcessor)(nil)

func NewDeliveryProcessor(reportService *ReportService, notifier *notify.Service, logger *applog.Logger) *DeliveryProcessor {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DeliveryProcessor{
		reports:  reportService,
		notifier: notifier,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

func (p *DeliveryProcessor) HandleReportDelivery(ctx context.Context, msg *amqp.ReportDeliveryMessage) error {
	g := Generated{Kind: reports.Kind(msg.Kind), Period: msg.Period, Message: msg.Message}

	// totals are only needed for the archive row
	if kind, err := reports.ParseKind(msg.Kind); err == nil {
		if regenerated, err := p.reports.Generate(ctx, kind, msg.Period); err == nil {
			g.Totals = regenerated.Totals
		} else {
			p.logger.WarnContext(ctx, "Could not regenerate report totals",
				applog.FieldError, err,
				applog.FieldMessageID, msg.ID)
		}
	}

	d, err := p.reports.Deliver(ctx, g, msg.Phones)
	if errors.Is(err, notify.ErrNoRecipients) || errors.Is(err, notify.ErrEmptyMessage) {
		p.logger.WarnContext(ctx, "Dropping report delivery",
			applog.FieldError, err,
			applog.FieldMessageID, msg.ID)
		return nil
	}
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "Processed report delivery",
		applog.FieldMessageID, msg.ID,
		applog.FieldSent, d.Result.Sent,
		applog.FieldFailed, d.Result.Failed)
	return nil
}

func (p *DeliveryProcessor) HandleNotification(ctx context.Context, msg *amqp.NotificationMessage) error {
	ev, err := notify.DecodeEvent(msg.Event, msg.Data)
	if err != nil {
		p.logger.WarnContext(ctx, "Dropping notification",
			applog.FieldError, err,
			applog.FieldMessageID, msg.ID)
		return nil
	}

	out := p.notifier.Trigger(ctx, ev)
	p.logger.InfoContext(ctx, "Processed notification",
		applog.FieldMessageID, msg.ID,
		applog.FieldEvent, msg.Event,
		applog.FieldSuccess, out.Success,
		applog.FieldSent, out.Sent,
		applog.FieldFailed, out.Failed)
	return nil
}
