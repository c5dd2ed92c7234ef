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
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting notify-worker", applog.FieldOperation, applog.OpStartup)
	ctx := context.Background()

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for notify-worker")
		os.Exit(1)
	}

	store := cli.OpenBackend(ctx, logger, cfg)
	defer store.Cleanup()

	wa := cli.NewWhatsApp(cfg, logger)
	notifier, caches := cli.NewNotifier(cfg, store.Backend, wa, logger)
	archiver := cli.NewArchiver(ctx, cfg, logger)
	reportSvc := services.NewReportService(store.Backend, notifier, wa, archiver, logger)
	processor := services.NewDeliveryProcessor(reportSvc, notifier, logger)

	amqpClient, err := cli.ConnectAMQP(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		caches.Stop()
	})

	w := worker.NewDeliveryWorker(amqpClient, processor, logger)
	if err := w.Run(runCtx); err != nil {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(runCtx, done)
}
