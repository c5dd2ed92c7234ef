package main

import (
	"context"
	"os"
	"time"

	"madrassa/internal/cli"
	applog "madrassa/internal/log"
	"madrassa/internal/services"
	"madrassa/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentScheduler)
	logger.Info("Starting report-worker", applog.FieldOperation, applog.OpStartup)
	ctx := context.Background()

	store := cli.OpenBackend(ctx, logger, cfg)
	defer store.Cleanup()

	wa := cli.NewWhatsApp(cfg, logger)
	notifier, caches := cli.NewNotifier(cfg, store.Backend, wa, logger)
	archiver := cli.NewArchiver(ctx, cfg, logger)
	reportSvc := services.NewReportService(store.Backend, notifier, wa, archiver, logger)

	// Without a broker the worker sends reports itself.
	var deliverer services.Deliverer
	amqpClient, err := cli.ConnectAMQP(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to AMQP, delivering directly", applog.FieldError, err)
	} else if amqpClient != nil {
		defer amqpClient.Close()
		deliverer = services.NewQueueDeliverer(amqpClient, reportSvc, logger)
		logger.Info("Report delivery queued through AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	loc := cfg.Location()
	trigger := services.NewScheduledTrigger(store.Backend, reportSvc, deliverer, loc, logger)
	w := worker.NewReportWorker(trigger, cfg.ReportCheckInterval, cfg.ReportHour, loc, logger)

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		caches.Stop()
	})

	if err := w.Run(runCtx); err != nil {
		logger.Error("Report worker failed", applog.FieldError, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(runCtx, done)
}
