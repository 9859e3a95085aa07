package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeKV is an in-memory KeyValue with optional fault injection.
type fakeKV struct {
	data    map[string][]byte
	sets    map[string]map[string]struct{}
	failure error
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		data: make(map[string][]byte),
		sets: make(map[string]map[string]struct{}),
	}
}

func (f *fakeKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failure != nil {
		return nil, f.failure
	}
	return f.data[key], nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.failure != nil {
		return f.failure
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(ctx context.Context, keys ...string) error {
	if f.failure != nil {
		return f.failure
	}
	for _, key := range keys {
		delete(f.data, key)
		delete(f.sets, key)
	}
	return nil
}

func (f *fakeKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if f.failure != nil {
		return f.failure
	}
	return nil
}

func (f *fakeKV) SAdd(ctx context.Context, key string, members ...string) error {
	if f.failure != nil {
		return f.failure
	}
	set, ok := f.sets[key]
	if !ok {
		set = make(map[string]struct{})
		f.sets[key] = set
	}
	for _, member := range members {
		set[member] = struct{}{}
	}
	return nil
}

func (f *fakeKV) SMembers(ctx context.Context, key string) ([]string, error) {
	if f.failure != nil {
		return nil, f.failure
	}
	var members []string
	for member := range f.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func TestResponseCache_PutAndGet(t *testing.T) {
	kv := newFakeKV()
	rc := NewResponseCache(kv)
	ctx := context.Background()

	rc.Put(ctx, 7, ScopeRoutes, "list:p1", []byte(`{"routes":[]}`), RoutesTTL)

	assert.Equal(t, []byte(`{"routes":[]}`), rc.Get(ctx, 7, ScopeRoutes, "list:p1"))

	// Entry and index live under distinct, user-scoped keys.
	assert.Contains(t, kv.data, "resp:7:routes:list:p1")
	assert.Contains(t, kv.sets, "respidx:7:routes")
	assert.Contains(t, kv.sets["respidx:7:routes"], "resp:7:routes:list:p1")
}

func TestResponseCache_GetMiss(t *testing.T) {
	rc := NewResponseCache(newFakeKV())
	assert.Nil(t, rc.Get(context.Background(), 7, ScopeRoutes, "list:p1"))
}

func TestResponseCache_Invalidate(t *testing.T) {
	ctx := context.Background()

	t.Run("removes every entry in the scope, and only that scope", func(t *testing.T) {
		kv := newFakeKV()
		rc := NewResponseCache(kv)
		rc.Put(ctx, 7, ScopeRoutes, "list:p1", []byte(`a`), RoutesTTL)
		rc.Put(ctx, 7, ScopeRoutes, "detail:x", []byte(`b`), RoutesTTL)
		rc.Put(ctx, 7, ScopeProfile, "profile", []byte(`c`), ProfileTTL)

		rc.Invalidate(ctx, 7, ScopeRoutes)

		assert.Nil(t, rc.Get(ctx, 7, ScopeRoutes, "list:p1"))
		assert.Nil(t, rc.Get(ctx, 7, ScopeRoutes, "detail:x"))
		assert.Equal(t, []byte(`c`), rc.Get(ctx, 7, ScopeProfile, "profile"))
		assert.NotContains(t, kv.sets, "respidx:7:routes")
	})

	t.Run("no scopes means all scopes", func(t *testing.T) {
		kv := newFakeKV()
		rc := NewResponseCache(kv)
		rc.Put(ctx, 7, ScopeRoutes, "list:p1", []byte(`a`), RoutesTTL)
		rc.Put(ctx, 7, ScopeProfile, "profile", []byte(`b`), ProfileTTL)
		rc.Put(ctx, 7, ScopeStats, "stats", []byte(`c`), StatsTTL)

		rc.Invalidate(ctx, 7)

		assert.Empty(t, kv.data)
	})

	t.Run("does not touch other users", func(t *testing.T) {
		kv := newFakeKV()
		rc := NewResponseCache(kv)
		rc.Put(ctx, 7, ScopeRoutes, "list:p1", []byte(`a`), RoutesTTL)
		rc.Put(ctx, 8, ScopeRoutes, "list:p1", []byte(`b`), RoutesTTL)

		rc.Invalidate(ctx, 7, ScopeRoutes)

		assert.Nil(t, rc.Get(ctx, 7, ScopeRoutes, "list:p1"))
		assert.Equal(t, []byte(`b`), rc.Get(ctx, 8, ScopeRoutes, "list:p1"))
	})

	t.Run("zero matching entries is a success", func(t *testing.T) {
		rc := NewResponseCache(newFakeKV())
		assert.NotPanics(t, func() {
			rc.Invalidate(ctx, 7, ScopeRoutes, ScopeProfile, ScopeStats)
		})
	})
}

func TestResponseCache_StoreFailureReadsAsMiss(t *testing.T) {
	kv := newFakeKV()
	kv.failure = assert.AnError
	rc := NewResponseCache(kv)
	ctx := context.Background()

	assert.Nil(t, rc.Get(ctx, 7, ScopeRoutes, "list:p1"))
	assert.NotPanics(t, func() {
		rc.Put(ctx, 7, ScopeRoutes, "list:p1", []byte(`a`), RoutesTTL)
		rc.Invalidate(ctx, 7)
	})
}
