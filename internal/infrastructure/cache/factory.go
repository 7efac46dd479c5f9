package cache

import (
	"fmt"

	"github.com/salesdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StoreFactory creates cache stores based on configuration
type StoreFactory struct {
	redisConfig         config.RedisConfig
	keyPrefix           string
	logger              *zap.Logger
	allowMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithMemoryFallback controls whether to fall back to the in-process store
// when Redis is unavailable. Default is false: the cached repositories
// assume one shared cache tier, so silent per-process caches are opt-in.
func WithMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowMemoryFallback = allow
	}
}

// WithKeyPrefix namespaces every key the created store touches
func WithKeyPrefix(prefix string) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.keyPrefix = prefix
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:         cfg,
		logger:              zap.NewNop(),
		allowMemoryFallback: false,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-based store
func (f *StoreFactory) CreateRedisStore() (Store, error) {
	store, err := NewRedisStore(f.redisConfig, f.keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis cache store: %w", err)
	}
	return store, nil
}

// CreateMemoryStore creates an in-process store.
// WARNING: per-process caches do not share state across instances, so
// entities updated on one instance stay stale on the others until the TTL
// runs out.
func (f *StoreFactory) CreateMemoryStore() Store {
	return NewMemoryStore()
}

// CreateStore creates a cache store based on whether Redis is available.
// It tries Redis first and falls back to the in-process store only when the
// factory allows it.
func (f *StoreFactory) CreateStore() (Store, error) {
	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis cache store")
		return store, nil
	}

	if !f.allowMemoryFallback {
		return nil, fmt.Errorf("Redis required for cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-process cache store. "+
		"Cached entries will not be shared across instances.",
		zap.Error(err),
	)
	return f.CreateMemoryStore(), nil
}
