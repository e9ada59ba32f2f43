package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hazard-service/internal/models"
)

const keyPrefix = "caps:"

// CapabilityCache handles caching of resolved capabilities in Redis.
// With no reachable Redis every call is a no-op.
type CapabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCapabilityCache creates a new capability cache instance
func NewCapabilityCache(host string, port int, password string, db int, ttlSeconds int) (*CapabilityCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		// Degrade to no caching
		return &CapabilityCache{
			client: nil,
			ttl:    time.Duration(ttlSeconds) * time.Second,
		}, nil
	}

	return NewCapabilityCacheWithClient(client, ttlSeconds), nil
}

// NewCapabilityCacheWithClient wraps an existing client
func NewCapabilityCacheWithClient(client *redis.Client, ttlSeconds int) *CapabilityCache {
	return &CapabilityCache{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
}

func (c *CapabilityCache) cacheKey(userID string) string {
	return keyPrefix + userID
}

// Get returns nil, nil on a miss or when the cache is unavailable
func (c *CapabilityCache) Get(ctx context.Context, userID string) (*models.Capabilities, error) {
	if c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, c.cacheKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var caps models.Capabilities
	if err := json.Unmarshal(data, &caps); err != nil {
		return nil, err
	}
	return &caps, nil
}

// Set caches capabilities for a user
func (c *CapabilityCache) Set(ctx context.Context, userID string, caps *models.Capabilities) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(caps)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.cacheKey(userID), data, c.ttl).Err()
}

// Invalidate removes one user's entry
func (c *CapabilityCache) Invalidate(ctx context.Context, userID string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.cacheKey(userID)).Err()
}

// InvalidateAll removes every cached capability set. Group changes can
// affect any user, so this is what runs on groupsUpdated.
func (c *CapabilityCache) InvalidateAll(ctx context.Context) error {
	if c.client == nil {
		return nil
	}

	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}

// Close closes the Redis connection
func (c *CapabilityCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// IsAvailable returns true if the cache is available
func (c *CapabilityCache) IsAvailable() bool {
	return c.client != nil
}
