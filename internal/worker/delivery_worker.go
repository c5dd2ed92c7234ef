package worker

import (
	"context"
	"errors"

	"madrassa/internal/amqp"
	applog "madrassa/internal/log"
)

// Consumer feeds queued messages to a handler until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, h amqp.Handler) error
}

// DeliveryWorker drains the delivery queue.
type DeliveryWorker struct {
	consumer Consumer
	handler  amqp.Handler
	logger   *applog.Logger
}

func NewDeliveryWorker(consumer Consumer, handler amqp.Handler, logger *applog.Logger) *DeliveryWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DeliveryWorker{
		consumer: consumer,
		handler:  handler,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// Run blocks until ctx is cancelled or the consumer fails for good.
// Cancellation is a clean stop.
func (w *DeliveryWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Delivery worker started")
	err := w.consumer.Consume(ctx, w.handler)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		w.logger.Info("Delivery worker stopped")
		return nil
	}
	return err
}
