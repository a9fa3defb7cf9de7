package place

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/places-api/internal/store"
)

// ErrCacheMiss is returned by Cache.Get when the place is not cached.
var ErrCacheMiss = errors.New("place not cached")

// Cache is a read-through cache of single places.
//
// A fill is guarded by a lease: Lease is taken before the store read and Set
// only writes while the lease is still held. Delete drops the lease, so a read
// that raced an update or delete never puts its stale copy back.
type Cache interface {
	Get(ctx context.Context, id uuid.UUID) (*store.Place, error)
	// Lease returns "" when another fill of id is in progress.
	Lease(ctx context.Context, id uuid.UUID) (string, error)
	Set(ctx context.Context, p *store.Place, lease string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

const leaseTTL = 5 * time.Second

// setIfLeased stores ARGV[2] under KEYS[1] with a TTL of ARGV[3] ms when the
// lease at KEYS[2] still equals ARGV[1]. The lease is consumed either way.
var setIfLeased = redis.NewScript(`
if redis.call("GET", KEYS[2]) ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
redis.call("DEL", KEYS[2])
return 1
`)

// RedisCache stores places as JSON strings with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

// getPlaceKey generates the Redis key for a cached place
func getPlaceKey(id uuid.UUID) string {
	return fmt.Sprintf("place:%s", id.String())
}

func getLeaseKey(id uuid.UUID) string {
	return fmt.Sprintf("place:lease:%s", id.String())
}

func (c *RedisCache) Get(ctx context.Context, id uuid.UUID) (*store.Place, error) {
	data, err := c.client.Get(ctx, getPlaceKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cached place: %w", err)
	}

	p := new(store.Place)
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to decode cached place: %w", err)
	}
	return p, nil
}

func (c *RedisCache) Lease(ctx context.Context, id uuid.UUID) (string, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, getLeaseKey(id), token, leaseTTL).Result()
	if err != nil {
		return "", fmt.Errorf("failed to lease place cache entry: %w", err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

func (c *RedisCache) Set(ctx context.Context, p *store.Place, lease string) error {
	if lease == "" {
		return nil
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode place: %w", err)
	}

	keys := []string{getPlaceKey(p.ID), getLeaseKey(p.ID)}
	if err := setIfLeased.Run(ctx, c.client, keys, lease, data, c.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("failed to cache place: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, getPlaceKey(id), getLeaseKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to evict place: %w", err)
	}
	return nil
}

// NopCache never caches anything.
type NopCache struct{}

func (NopCache) Get(context.Context, uuid.UUID) (*store.Place, error) { return nil, ErrCacheMiss }
func (NopCache) Lease(context.Context, uuid.UUID) (string, error)     { return "", nil }
func (NopCache) Set(context.Context, *store.Place, string) error      { return nil }
func (NopCache) Delete(context.Context, uuid.UUID) error              { return nil }
