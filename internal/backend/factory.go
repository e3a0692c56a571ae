package backend

import (
	"context"
	"fmt"
	"time"

	"spendings/internal/amqp"
	"spendings/internal/cache"
	"spendings/internal/core"
	"spendings/internal/log"
	"spendings/internal/repository"
	"spendings/internal/repository/memory"
	"spendings/internal/services"
	"spendings/internal/storage"
)

const (
	defaultCacheSize = 128
	defaultCacheTTL  = time.Minute
	redisKeyPrefix   = "spendings:pages:"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var cleanups []CleanupFunc

	repo, err := f.createRepository(config)
	if err != nil {
		return nil, err
	}

	pages, cleanup := f.createCache(ctx, config)
	if cleanup != nil {
		cleanups = append(cleanups, cleanup)
	}

	// Initialize AMQP client (optional)
	var publisher services.EventPublisher
	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			publisher = amqpClient
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	svc := services.NewSpendingService(repo, pages, publisher, config.PageSize, f.logger)
	cleanups = append(cleanups, svc.Close)

	f.logger.Info("Initialized backend",
		"type", config.Type.String(),
		"page_size", svc.PageSize(),
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Service: svc,
		Cleanup: chain(cleanups),
	}, nil
}

func (f *DefaultFactory) createRepository(config Config) (repository.SpendingRepository, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite repository", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory repository", "seed_file", config.SeedFile)
		return memory.NewFromFile(config.SeedFile), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// createCache prefers Redis and falls back to an in-process LRU when Redis
// is not configured or not reachable.
func (f *DefaultFactory) createCache(ctx context.Context, config Config) (cache.Cache[core.Page], CleanupFunc) {
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	if config.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, config.RedisURL)
		if err == nil {
			f.logger.Info("Initialized Redis page cache", "ttl", ttl.String())
			return cache.NewRedisCache[core.Page](client, redisKeyPrefix, ttl, f.logger), client.Close
		}
		f.logger.Warn("Redis not available, using in-process cache", log.FieldError, err)
	}

	size := config.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	lru := cache.NewLRUCache[core.Page](size, ttl)
	manager := cache.NewManager(f.logger)
	manager.Register(lru)
	manager.StartCleanup(ttl)

	return lru, func() error {
		manager.Stop()
		return nil
	}
}

func chain(fns []CleanupFunc) CleanupFunc {
	return func() error {
		var errs []error
		for i := len(fns) - 1; i >= 0; i-- {
			if err := fns[i](); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return fmt.Errorf("cleanup: %v", errs)
		}
		return nil
	}
}
