package main

import (
	"context"
	"os"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/cli"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/store/sheets"
	"ledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting ledger-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	policy, err := services.ParseWindowPolicy(cfg.AnnualWindow)
	if err != nil {
		logger.Error("Invalid annual window", log.FieldError, err)
		os.Exit(1)
	}

	// The worker consumes with its own client; the backend publisher is not needed.
	amqpURL := cfg.AMQPURL
	cfg.AMQPURL = ""
	backend := cli.InitBackend(context.Background(), logger, cfg)

	exporter, err := sheets.NewExporter(context.Background(), sheets.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	consumer, err := amqp.NewClient(amqpURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	dedupe := cache.NewDeduper(cfg.DedupeSize, cfg.DedupeTTL)
	caches := cache.NewManager(logger)
	caches.Register(dedupe)
	caches.StartCleanup(cfg.DedupeTTL)

	w := worker.NewSummaryWorker(
		services.NewLedgerViewBuilder(backend.Store, services.NewProjector(logger), logger),
		services.NewSummarizer(policy),
		backend.Store,
		exporter,
		dedupe,
		time.Now,
		worker.Config{TopCategories: cfg.TopCategories, Concurrency: cfg.ExportConcurrency},
		logger,
	)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		caches.Stop()
		if err := consumer.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
		if err := backend.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Performing startup export...")
	if err := w.ExportAll(ctx); err != nil {
		// Individual owners are retried on their next change message.
		logger.Error("Startup export finished with errors", log.FieldError, err)
	}

	go func() {
		if err := consumer.ConsumeTransactionChanged(ctx, w.HandleChangeMessage); err != nil && ctx.Err() == nil {
			logger.Error("Message consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
