package services

import (
	"context"

	"madrassa/internal/amqp"
	applog "madrassa/internal/log"
	"madrassa/internal/notify"
)

// ReportPublisher enqueues report deliveries.
type ReportPublisher interface {
	PublishReportDelivery(ctx context.Context, msg *amqp.ReportDeliveryMessage) error
}

// QueueDeliverer hands reports to the notify worker through AMQP. When the
// publish fails and a fallback is set, the report is delivered directly.
type QueueDeliverer struct {
	publisher ReportPublisher
	fallback  Deliverer
	logger    *applog.Logger
}

var _ Deliverer = (*QueueDeliverer)(nil)

func NewQueueDeliverer(publisher ReportPublisher, fallback Deliverer, logger *applog.Logger) *QueueDeliverer {
	if logger == nil {
		logger = applog.Discard()
	}
	return &QueueDeliverer{
		publisher: publisher,
		fallback:  fallback,
		logger:    logger.WithComponent(applog.ComponentAMQP),
	}
}

func (q *QueueDeliverer) Deliver(ctx context.Context, g Generated, phones []string) (Delivery, error) {
	valid := notify.SanitizePhones(phones)
	if len(valid) == 0 {
		return Delivery{}, notify.ErrNoRecipients
	}

	msg := amqp.NewReportDeliveryMessage(string(g.Kind), g.Period, g.Message, valid)
	if err := q.publisher.PublishReportDelivery(ctx, msg); err != nil {
		if q.fallback == nil {
			return Delivery{}, err
		}
		q.logger.WarnContext(ctx, "Publish failed, delivering directly",
			applog.FieldError, err,
			applog.FieldReportKind, string(g.Kind),
			applog.FieldPeriod, g.Period)
		return q.fallback.Deliver(ctx, g, valid)
	}
	return Delivery{
		Queued:    true,
		MessageID: msg.ID,
		Result:    notify.Result{Total: len(valid)},
	}, nil
}
