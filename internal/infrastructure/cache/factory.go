// Package cache builds the shared-state stores that back token revocation and
// tenant provisioning, preferring Redis and falling back to process memory.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/expensetracker/backend/internal/infrastructure/auth"
	"github.com/expensetracker/backend/internal/infrastructure/config"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/tenant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	dialTimeout           = 5 * time.Second
	defaultProvisionedTTL = 24 * time.Hour
)

// Stores groups the stores built by a StoreFactory.
type Stores struct {
	Blacklist   auth.TokenBlacklist
	Provisioned tenant.ProvisionedCache

	client *redis.Client
}

// Shared reports whether the stores are backed by Redis.
func (s *Stores) Shared() bool {
	return s.client != nil
}

// Ping checks the Redis connection. In-memory stores are always healthy.
func (s *Stores) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis connection, if any.
func (s *Stores) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// StoreFactory creates stores based on configuration
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	provisionedTTL        time.Duration
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithProvisionedTTL sets how long a schema stays marked as provisioned in Redis.
func WithProvisionedTTL(ttl time.Duration) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.provisionedTTL = ttl
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		provisionedTTL:        defaultProvisionedTTL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// CreateInMemoryStores creates process-local stores.
// Revocations and provisioning marks are not shared across instances.
func (f *StoreFactory) CreateInMemoryStores() *Stores {
	return &Stores{
		Blacklist:   auth.NewInMemoryTokenBlacklist(),
		Provisioned: tenant.NewInMemoryProvisionedCache(),
	}
}

// CreateStores returns Redis-backed stores when Redis is enabled and reachable.
// Otherwise it falls back to in-memory stores if fallback is allowed.
func (f *StoreFactory) CreateStores(ctx context.Context) (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory stores")
		return f.CreateInMemoryStores(), nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("Using Redis stores", zap.String("addr", f.redisConfig.Addr()))
		return &Stores{
			Blacklist:   auth.NewRedisTokenBlacklist(client),
			Provisioned: tenant.NewRedisProvisionedCache(client, f.provisionedTTL),
			client:      client,
		}, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Revoked tokens will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStores(), nil
}
