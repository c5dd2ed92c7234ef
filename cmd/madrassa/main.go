package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"madrassa/internal/cli"
	apphttp "madrassa/internal/http"
	applog "madrassa/internal/log"
	"madrassa/internal/middleware/security"
	"madrassa/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)
	ctx := context.Background()

	store := cli.OpenBackend(ctx, logger, cfg)
	defer store.Cleanup()

	wa := cli.NewWhatsApp(cfg, logger)
	notifier, caches := cli.NewNotifier(cfg, store.Backend, wa, logger)
	archiver := cli.NewArchiver(ctx, cfg, logger)
	reportSvc := services.NewReportService(store.Backend, notifier, wa, archiver, logger)

	headers := security.DefaultHeadersConfig()
	headers.IsDevelopment = cfg.LogLevel == "debug"

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Reports:   reportSvc,
		Notifier:  notifier,
		Config:    store.Backend,
		Ready:     store.Backend,
		Location:  cfg.Location(),
		RateLimit: cfg.HTTPRateLimit,
		Headers:   headers,
		Logger:    logger,
	})

	// Report endpoints with send=true wait on the WhatsApp pacing.
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 5 * time.Minute
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		caches.Stop()
	})

	logger.Info("Starting madrassa server",
		applog.FieldOperation, applog.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
