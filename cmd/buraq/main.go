package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"buraq/internal/backend"
	"buraq/internal/cli"
	"buraq/internal/config"
	apphttp "buraq/internal/http"
	"buraq/internal/log"
	"buraq/internal/services"
	ports "buraq/internal/sheets"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	// The Sheets client keeps this context for token refreshes, so it is
	// not bounded by a start-up timeout.
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	ledger := services.NewLedgerService(res.Fetcher, cfg.Schema,
		services.WithCacheTTL(cfg.LedgerCacheTTL),
		services.WithFetchTimeout(cfg.FetchTimeout),
		services.WithReadyWindow(cfg.ReadyWindow),
		services.WithRecorder(res.Recorder),
		services.WithLogger(logger),
	)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		Ledger:         ledger,
		Loads:          res.Loads,
		ExportFilename: cfg.ExportFilename,
		Logger:         logger,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting buraq server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		log.FieldSource, ports.Describe(res.Fetcher),
		"cache_ttl", cfg.LedgerCacheTTL.String(),
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
