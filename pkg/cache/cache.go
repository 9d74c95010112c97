package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
)

// Store is the narrow Redis surface the cache needs.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
	CacheKey(parts ...string) string
}

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

// Cache is an explicit cache-aside wrapper: callers supply the key, TTL,
// and invalidation tags on every call. Store failures degrade to loading
// from source, never to a caller-visible error.
type Cache struct {
	store Store
	logg  *logger.Logger
}

// New constructs a Cache over the provided store.
func New(store Store, logg *logger.Logger) *Cache {
	return &Cache{store: store, logg: logg}
}

// Key builds the namespaced cache key for the given parts.
func (c *Cache) Key(parts ...string) string {
	return c.store.CacheKey(parts...)
}

// Get unmarshals the cached value at key into dest.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("decoding cached value at %s: %w", key, err)
	}
	return nil
}

// Put stores value at key with the supplied TTL and registers the key
// under each invalidation tag.
func (c *Cache) Put(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache value for %s: %w", key, err)
	}
	if err := c.store.Set(ctx, key, string(raw), ttl); err != nil {
		return err
	}
	for _, tag := range tags {
		if err := c.store.SAdd(ctx, c.tagKey(tag), key); err != nil {
			return err
		}
	}
	return nil
}

// Invalidate drops every key registered under the supplied tags.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		tagKey := c.tagKey(tag)
		keys, err := c.store.SMembers(ctx, tagKey)
		if err != nil {
			return err
		}
		targets := append(keys, tagKey)
		if err := c.store.Del(ctx, targets...); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) tagKey(tag string) string {
	return c.store.CacheKey("tag", tag)
}

// GetOrLoad reads through the cache: on a miss (or any store failure) it
// loads from source and repopulates. Load errors are returned unchanged.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, tags []string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if c != nil {
		err := c.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrMiss) && c.logg != nil {
			c.logg.Warn(ctx, fmt.Sprintf("cache read failed for %s: %v", key, err))
		}
	}

	loaded, err := load(ctx)
	if err != nil {
		return loaded, err
	}

	if c != nil {
		if err := c.Put(ctx, key, loaded, ttl, tags...); err != nil && c.logg != nil {
			c.logg.Warn(ctx, fmt.Sprintf("cache write failed for %s: %v", key, err))
		}
	}
	return loaded, nil
}
