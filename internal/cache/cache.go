// Package cache provides a small bounded key/value cache used to keep
// admin-grant lookups off the database on every guarded request. Entries are
// TTL-bounded and explicitly invalidated on grant and revoke, so a stale
// privilege can outlive the fact by at most the configured TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the cache interface injected into the components that need one.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// RedisStore backs the cache with a shared Redis instance so all replicas
// see invalidations.
type RedisStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{Client: client, Prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := s.Client.Get(ctx, s.Prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	// Best effort; a failed write only costs a DB lookup later.
	_ = s.Client.Set(ctx, s.Prefix+key, val, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) {
	_ = s.Client.Del(ctx, s.Prefix+key).Err()
}

// MemoryStore is the in-process fallback used when Redis is unreachable at
// startup. It is size-bounded: once maxEntries is reached, expired entries
// are purged and, failing that, the write is dropped rather than growing
// without bound.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
}

type memoryEntry struct {
	val []byte
	exp time.Time
}

func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &MemoryStore{entries: map[string]memoryEntry{}, maxEntries: maxEntries}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.exp) {
		delete(s.entries, key)
		return nil, false
	}
	return e.val, true
}

func (s *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= s.maxEntries {
		now := time.Now()
		for k, e := range s.entries {
			if now.After(e.exp) {
				delete(s.entries, k)
			}
		}
		if len(s.entries) >= s.maxEntries {
			return
		}
	}
	s.entries[key] = memoryEntry{val: val, exp: time.Now().Add(ttl)}
}

func (s *MemoryStore) Delete(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}
