package cache

import (
	"context"
	"fmt"
	"time"
)

// Response cache TTLs per scope.
const (
	RoutesTTL  = 10 * time.Minute
	ProfileTTL = 30 * time.Minute
	StatsTTL   = time.Hour

	// indexTTL bounds how long a key-set index outlives its members. It must
	// exceed every entry TTL so invalidation can always enumerate live keys.
	indexTTL = 24 * time.Hour
)

// Cache scope tags. Invalidation targets a (user, scope) pair.
const (
	ScopeRoutes  = "routes"
	ScopeProfile = "profile"
	ScopeStats   = "stats"
)

// ResponseCache memoizes successful read responses keyed by user, scope and a
// canonical request signature. Every Put also records the key in a per-scope
// index set, so invalidation is a targeted delete list rather than a pattern
// scan over the whole keyspace.
type ResponseCache struct {
	kv KeyValue
}

// NewResponseCache creates a response cache over the given key-value store.
func NewResponseCache(kv KeyValue) *ResponseCache {
	return &ResponseCache{kv: kv}
}

func (c *ResponseCache) entryKey(userID uint, scope, signature string) string {
	return fmt.Sprintf("resp:%d:%s:%s", userID, scope, signature)
}

func (c *ResponseCache) indexKey(userID uint, scope string) string {
	return fmt.Sprintf("respidx:%d:%s", userID, scope)
}

// Get returns the cached body for the signature, or nil on miss. Cache
// failures read as misses.
func (c *ResponseCache) Get(ctx context.Context, userID uint, scope, signature string) []byte {
	data, _ := c.kv.Get(ctx, c.entryKey(userID, scope, signature))
	return data
}

// Put stores a response body and registers its key in the scope index. Only
// successful responses belong here; callers must never cache errors.
func (c *ResponseCache) Put(ctx context.Context, userID uint, scope, signature string, body []byte, ttl time.Duration) {
	key := c.entryKey(userID, scope, signature)
	_ = c.kv.Set(ctx, key, body, ttl)
	idx := c.indexKey(userID, scope)
	_ = c.kv.SAdd(ctx, idx, key)
	_ = c.kv.Expire(ctx, idx, indexTTL)
}

// Invalidate deletes every cached entry for the user in the given scopes,
// or in all scopes when none are given. Zero matches is a success; an
// unreachable cache store is a no-op, and staleness stays bounded by the
// entry TTLs.
func (c *ResponseCache) Invalidate(ctx context.Context, userID uint, scopes ...string) {
	if len(scopes) == 0 {
		scopes = []string{ScopeRoutes, ScopeProfile, ScopeStats}
	}
	for _, scope := range scopes {
		idx := c.indexKey(userID, scope)
		keys, _ := c.kv.SMembers(ctx, idx)
		_ = c.kv.Delete(ctx, append(keys, idx)...)
	}
}
