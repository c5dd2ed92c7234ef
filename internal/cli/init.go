// Package cli holds the start-up wiring shared by the madrassa binaries.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"madrassa/internal/amqp"
	"madrassa/internal/backend"
	"madrassa/internal/cache"
	"madrassa/internal/config"
	applog "madrassa/internal/log"
	"madrassa/internal/notify"
	"madrassa/internal/sheets"
	gsheet "madrassa/internal/sheets/google"
	"madrassa/internal/whatsapp"
)

// Bootstrap loads .env and the configuration, builds the process logger for
// component and exits when the configuration is invalid.
func Bootstrap(component string) (*config.Config, *applog.Logger) {
	// Optional outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(component, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenBackend builds the configured ledger store or exits the process.
func OpenBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// NewWhatsApp builds the gateway client from the configuration.
func NewWhatsApp(cfg *config.Config, logger *applog.Logger) *whatsapp.Client {
	return whatsapp.New(whatsapp.Config{
		APIURL:        cfg.WhatsAppAPIURL,
		APIKey:        cfg.WhatsAppAPIKey,
		Session:       cfg.WhatsAppSession,
		CountryCode:   cfg.WhatsAppCountryCode,
		TypingMin:     cfg.WhatsAppTypingMin,
		TypingMax:     cfg.WhatsAppTypingMax,
		PauseMin:      cfg.WhatsAppPauseMin,
		PauseMax:      cfg.WhatsAppPauseMax,
		RatePerMinute: cfg.WhatsAppRatePerMinute,
	}, logger)
}

// NewNotifier builds the notification service and starts a janitor for its
// organisation name cache. Stop the returned manager on shutdown.
func NewNotifier(cfg *config.Config, store notify.ConfigReader, d notify.Dispatcher, logger *applog.Logger) (*notify.Service, *cache.Manager) {
	svc := notify.NewService(d, store, cfg.OrgNameTTL, logger)
	mgr := cache.NewManager(logger)
	mgr.Register(svc.Names())
	mgr.StartCleanup(cfg.OrgNameTTL)
	return svc, mgr
}

// NewArchiver returns the Sheets archive when configured, otherwise a no-op.
// A broken archive never stops a binary.
func NewArchiver(ctx context.Context, cfg *config.Config, logger *applog.Logger) sheets.ReportArchiver {
	if !cfg.ArchiveEnabled() {
		logger.Info("Report archive disabled - no GOOGLE_SPREADSHEET_ID provided")
		return sheets.Noop{}
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize report archive, continuing without it", applog.FieldError, err)
		return sheets.Noop{}
	}
	logger.Info("Report archive enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client
}

// ConnectAMQP connects to the broker. It returns nil when no AMQP_URL is set.
func ConnectAMQP(cfg *config.Config, logger *applog.Logger) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}
	return amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM and a
// channel closed once cleanup has run.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete", applog.FieldOperation, applog.OpShutdown)
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
