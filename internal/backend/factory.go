package backend

import (
	"context"
	"errors"
	"fmt"

	"buraq/internal/amqp"
	"buraq/internal/log"
	"buraq/internal/services"
	gsheet "buraq/internal/sheets/google"
	"buraq/internal/sheets/memory"
	"buraq/internal/storage"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the data source and the audit sinks. A broker that
// cannot be reached only disables publishing; any other failure is fatal.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	var err error
	switch config.Type {
	case SheetsBackend:
		res.Fetcher, err = f.createSheetsFetcher(ctx, config)
	default:
		res.Fetcher, err = f.createMemoryFetcher(config)
	}
	if err != nil {
		return nil, err
	}

	var (
		recorders services.MultiRecorder
		closers   []func() error
	)
	if config.AuditDBPath != "" {
		repo, err := storage.NewSQLiteRepository(config.AuditDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		recorders = append(recorders, repo)
		closers = append(closers, repo.Close)
		res.Loads = repo
		f.logger.WithComponent(log.ComponentStorage).Info("Initialized audit store", "db_path", config.AuditDBPath)
	}
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WithComponent(log.ComponentAMQP).Warn("Failed to initialize AMQP client, continuing without publishing",
				log.FieldError, err)
		} else {
			recorders = append(recorders, client)
			closers = append(closers, client.Close)
			f.logger.WithComponent(log.ComponentAMQP).Info("Initialized AMQP client",
				"exchange", config.AMQPExchange, "queue", config.AMQPQueue)
		}
	}

	res.Recorder = recorders
	res.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	return res, nil
}

func (f *DefaultFactory) createSheetsFetcher(ctx context.Context, config Config) (*gsheet.Client, error) {
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:    config.SpreadsheetID,
		SpreadsheetTitle: config.SpreadsheetTitle,
		Worksheet:        config.WorksheetName,
		CredentialsJSON:  config.ServiceAccountJSON,
		CredentialsFile:  config.ServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.WithComponent(log.ComponentSheets).Info("Initialized Google Sheets backend", log.FieldSource, client.SourceName())
	return client, nil
}

func (f *DefaultFactory) createMemoryFetcher(config Config) (*memory.Store, error) {
	dir := config.DataDirectory
	if dir == "" {
		dir = "data"
	}
	store, err := memory.NewFromFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}
	f.logger.Info("Initialized memory backend", "data_directory", dir, log.FieldSource, store.SourceName())
	return store, nil
}
