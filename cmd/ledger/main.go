package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"ledger/internal/cli"
	apphttp "ledger/internal/http"
	"ledger/internal/log"
	"ledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	policy, err := services.ParseWindowPolicy(cfg.AnnualWindow)
	if err != nil {
		logger.Error("Invalid annual window", log.FieldError, err)
		os.Exit(1)
	}

	backend := cli.InitBackend(context.Background(), logger, cfg)
	clock := services.Clock(time.Now)

	deps := apphttp.Deps{
		Transactions:  services.NewTransactionService(backend.Store, backend.Publisher, clock, logger),
		Views:         services.NewLedgerViewBuilder(backend.Store, services.NewProjector(logger), logger),
		Aggregator:    services.NewAggregator(policy),
		Summarizer:    services.NewSummarizer(policy),
		Reports:       services.NewCategoryReportService(backend.Store, logger),
		Clock:         clock,
		TopCategories: cfg.TopCategories,
	}
	if p, ok := backend.Store.(apphttp.Pinger); ok {
		deps.Pinger = p
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps, apphttp.Options{RateLimitPerMinute: cfg.RateLimitPerMinute}, logger)
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := backend.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting ledger server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"annual_window", string(policy),
		"amqp_enabled", backend.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
