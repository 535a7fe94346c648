package tenant

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProvisionedCache remembers schemas already brought up to a script version,
// so logins skip the database round trips of provisioning.
type ProvisionedCache interface {
	IsProvisioned(ctx context.Context, schema string, version uint) (bool, error)
	MarkProvisioned(ctx context.Context, schema string, version uint) error
}

const provisionedKeyPrefix = "tenant:provisioned:"

// RedisProvisionedCache stores provisioning marks in Redis with a TTL
type RedisProvisionedCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisProvisionedCache creates a Redis-backed cache
func NewRedisProvisionedCache(client redis.Cmdable, ttl time.Duration) *RedisProvisionedCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisProvisionedCache{client: client, ttl: ttl}
}

func provisionedKey(schema string, version uint) string {
	return provisionedKeyPrefix + schema + ":" + strconv.FormatUint(uint64(version), 10)
}

// IsProvisioned implements ProvisionedCache
func (c *RedisProvisionedCache) IsProvisioned(ctx context.Context, schema string, version uint) (bool, error) {
	n, err := c.client.Exists(ctx, provisionedKey(schema, version)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkProvisioned implements ProvisionedCache
func (c *RedisProvisionedCache) MarkProvisioned(ctx context.Context, schema string, version uint) error {
	return c.client.Set(ctx, provisionedKey(schema, version), "1", c.ttl).Err()
}

// InMemoryProvisionedCache keeps marks for the life of the process
type InMemoryProvisionedCache struct {
	marks sync.Map
}

// NewInMemoryProvisionedCache creates an in-process cache
func NewInMemoryProvisionedCache() *InMemoryProvisionedCache {
	return &InMemoryProvisionedCache{}
}

// IsProvisioned implements ProvisionedCache
func (c *InMemoryProvisionedCache) IsProvisioned(_ context.Context, schema string, version uint) (bool, error) {
	_, ok := c.marks.Load(provisionedKey(schema, version))
	return ok, nil
}

// MarkProvisioned implements ProvisionedCache
func (c *InMemoryProvisionedCache) MarkProvisioned(_ context.Context, schema string, version uint) error {
	c.marks.Store(provisionedKey(schema, version), struct{}{})
	return nil
}
