// Package cache memoizes the result of evaluating a given source string
// in Redis, grounded on the teacher's internal/eventbus/redis_adapter.go
// connection/context pattern. A cache hit lets the HTTP API skip both the
// reader and the VM for a repeated expression against the same session;
// a miss, or Redis being unreachable, is never fatal — the API just falls
// back to evaluating normally, matching eventbus's
// NewEventBusWithRedis-falls-back-to-memory posture.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a redis client plus the TTL it stamps entries with.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect dials addr with a short timeout, the way the teacher's
// NewRedisEventBus pings once at construction time. A failed ping
// returns a nil *Cache rather than an error: callers treat a nil Cache
// as always-miss.
func Connect(addr string, ttlSeconds int) *Cache {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}

	return &Cache{client: client, ttl: time.Duration(ttlSeconds) * time.Second}
}

func key(session, source string) string {
	sum := sha256.Sum256([]byte(session + "\x00" + source))
	return "lispirito:eval:" + hex.EncodeToString(sum[:])
}

// Get returns the cached printed result for (session, source), and
// whether it was found. A nil Cache always misses.
func (c *Cache) Get(ctx context.Context, session, source string) (string, bool) {
	if c == nil {
		return "", false
	}
	val, err := c.client.Get(ctx, key(session, source)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores the printed result for (session, source) under the
// configured TTL. Errors are swallowed: a failed cache write degrades
// to a future miss, never to a failed request.
func (c *Cache) Set(ctx context.Context, session, source, result string) {
	if c == nil {
		return
	}
	_ = c.client.Set(ctx, key(session, source), result, c.ttl).Err()
}

// Invalidate drops the cached entry for (session, source). The HTTP API
// does not call it: a define or set! leaves results cached earlier for
// the same session in place until their TTL expires.
func (c *Cache) Invalidate(ctx context.Context, session, source string) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, key(session, source)).Err()
}
