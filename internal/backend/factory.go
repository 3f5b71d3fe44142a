package backend

import (
	"context"
	"fmt"

	"spendlog/internal/amqp"
	applog "spendlog/internal/log"
	"spendlog/internal/services"
	"spendlog/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend opens the configured store, connects the broker when one is
// configured and wraps both in an ExpenseService.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	var client *amqp.Client
	if config.AMQPURL != "" {
		client, err = amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			if config.RequireAMQP {
				_ = store.Close()
				return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
			}
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
			client = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	// A nil *amqp.Client must not become a non-nil interface.
	var publisher services.EventPublisher
	if client != nil {
		publisher = client
	}
	svc := services.NewExpenseService(store, publisher, services.Options{
		StatsTTL: config.StatsCacheTTL,
		Logger:   f.logger,
	})

	f.logger.Info("Initialized backend",
		"type", config.Type.String(),
		"amqp_enabled", client != nil,
		"stats_cache_ttl", config.StatsCacheTTL.String())

	return &BackendResult{
		Store:   store,
		Service: svc,
		AMQP:    client,
		Cleanup: svc.Close,
	}, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (storage.Store, error) {
	switch config.Type {
	case MemoryBackend:
		f.logger.Warn("Using memory backend, records are lost on restart")
		return storage.NewMemoryStore(), nil
	case SQLiteBackend:
		store, err := storage.NewSQLiteStore(ctx, config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return store, nil
	case PostgresBackend:
		store, err := storage.NewPostgresStore(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Opened Postgres store")
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
