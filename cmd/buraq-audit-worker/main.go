package main

import (
	"context"
	"errors"
	"os"
	"time"

	"buraq/internal/amqp"
	"buraq/internal/cli"
	"buraq/internal/config"
	"buraq/internal/log"
	"buraq/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting buraq-audit-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	repo := cli.InitSQLite(logger, cfg.AuditDBPath)
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.WithComponent(log.ComponentAMQP).Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	audit := worker.NewAuditWorker(repo, logger)
	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)

	if err := client.ConsumeLoadReports(ctx, audit.HandleLoadReport); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithComponent(log.ComponentAMQP).Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	stored, failed := audit.Counts()
	logger.Info("Audit worker stopped", "stored", stored, "failed", failed)
}
