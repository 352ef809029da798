// Package cache provides a bounded, TTL-expiring existence cache for the
// peer client (§4.3/§5: "in-process caches, if added, must be bounded
// and invalidated on the corresponding events"). No teacher equivalent
// exists in bank-api; enriched from the pack — both LerianStudio-midaz and
// r3e-network-service_layer depend on go-redis for request-scoped lookups
// of this exact shape.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the narrow interface the peer client needs: remember whether a
// customer id was seen active, and forget it eagerly on a domain event.
type Cache interface {
	Get(ctx context.Context, key string) (bool, bool)
	Set(ctx context.Context, key string, value bool, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	Close() error
}

// memoryCache is used when CACHE_ENABLED=false, keeping the interface
// identical so callers never branch on backend. It holds at most 10000
// entries; when full, Set drops expired entries first, then arbitrary ones.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     bool
	expiresAt time.Time
}

func NewMemoryCache() Cache {
	return &memoryCache{entries: make(map[string]memoryEntry)}
}

func (m *memoryCache) Get(_ context.Context, key string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		return false, false
	}
	return entry.value, true
}

func (m *memoryCache) Set(_ context.Context, key string, value bool, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	const maxEntries = 10000
	if _, exists := m.entries[key]; !exists && len(m.entries) >= maxEntries {
		now := time.Now()
		for k, e := range m.entries {
			if now.After(e.expiresAt) {
				delete(m.entries, k)
			}
		}
		for k := range m.entries {
			if len(m.entries) < maxEntries {
				break
			}
			delete(m.entries, k)
		}
	}
	m.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *memoryCache) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memoryCache) Close() error { return nil }

// redisCache backs the same interface with go-redis when CACHE_ENABLED=true.
type redisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(addr, prefix string) Cache {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &redisCache{client: client, prefix: prefix}
}

func (r *redisCache) Get(ctx context.Context, key string) (bool, bool) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		return false, false
	}
	return val == "1", true
}

func (r *redisCache) Set(ctx context.Context, key string, value bool, ttl time.Duration) error {
	v := "0"
	if value {
		v = "1"
	}
	return r.client.Set(ctx, r.prefix+key, v, ttl).Err()
}

func (r *redisCache) Invalidate(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
