package backend

import (
	"context"
	"fmt"

	"tracker/internal/amqp"
	"tracker/internal/log"
	"tracker/internal/store"
	"tracker/internal/store/cache"
	"tracker/internal/store/memory"
	"tracker/internal/store/postgres"
	"tracker/internal/store/sheets"
	"tracker/internal/store/sqlite"
)

// DefaultFactory builds the configured backend, then wraps it with the
// event publisher and the list cache when those are enabled.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	base, err := f.createBase(ctx, config)
	if err != nil {
		return nil, err
	}
	var b store.Backend = base

	var publisher *amqp.Client
	if config.AMQPURL != "" {
		publisher, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			b = amqp.NewPublishingBackend(b, publisher, f.logger)
		}
	}

	if config.CacheTTL > 0 {
		lc, err := f.createCache(ctx, config)
		if err != nil {
			if publisher != nil {
				publisher.Close()
			}
			_ = base.Close()
			return nil, err
		}
		b = cache.New(b, lc, f.logger)
	}

	return &BackendResult{
		Backend: b,
		Cleanup: func() error {
			if publisher != nil {
				publisher.Close()
			}
			return b.Close()
		},
	}, nil
}

func (f *DefaultFactory) createBase(ctx context.Context, config Config) (store.Backend, error) {
	switch config.Type {
	case MemoryBackend:
		if config.MemorySeedFile != "" {
			f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", config.MemorySeedFile)
			return memory.NewFromFile(config.MemorySeedFile), nil
		}
		f.logger.InfoContext(ctx, "Initialized memory backend")
		return memory.New(), nil

	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil

	case PostgresBackend:
		repo, err := postgres.NewRepository(ctx, config.DatabaseURL, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized postgres backend")
		return repo, nil

	case SheetsBackend:
		cli, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		}, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Google Sheets backend", "sheet", config.GoogleSheetName)
		return cli, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCache(ctx context.Context, config Config) (cache.ListCache, error) {
	if config.RedisURL == "" {
		f.logger.InfoContext(ctx, "Using in-process list cache", "ttl", config.CacheTTL.String())
		return cache.NewMemory(config.CacheTTL), nil
	}
	r, err := cache.NewRedis(ctx, config.RedisURL, config.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
	}
	f.logger.InfoContext(ctx, "Using redis list cache", "ttl", config.CacheTTL.String())
	return r, nil
}
