// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/olegiv/ibiza-nights/internal/model"
)

// newTestRedis connects to IBIZA_TEST_REDIS_URL under a per-test prefix,
// or skips the test.
func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()
	url := os.Getenv("IBIZA_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: IBIZA_TEST_REDIS_URL not set")
	}
	c, err := NewRedisCacheFromURL(url, "test:"+t.Name()+":", time.Minute)
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Clear(context.Background())
		_ = c.Close()
	})
	return c
}

func TestFamily(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{ListKey(model.KindClub, model.StatusApproved), "list:club:"},
		{SlugKey(model.KindDJ, "peggy-gou"), "slug:dj:"},
		{"list:event:", "list:event:"},
		{"list:event", ""},
		{"session:abc:def", ""},
		{"plain", ""},
	}
	for _, tt := range tests {
		if got := family(tt.key); got != tt.want {
			t.Errorf("family(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	key := SlugKey(model.KindDJ, "peggy-gou")
	if err := c.Set(ctx, key, []byte(`{"name":"Peggy Gou"}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := c.Get(ctx, key)
	if err != nil || string(got) != `{"name":"Peggy Gou"}` {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if has, _ := c.Has(ctx, key); !has {
		t.Error("Has returned false for existing key")
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete returned %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	key := ListKey(model.KindEvent, model.StatusApproved)
	if err := c.Set(ctx, key, []byte("[]"), 100*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if _, err := c.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after expiry returned %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache_InvalidateKindUsesIndex(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	eventKeys := []string{
		ListKey(model.KindEvent, model.StatusApproved),
		SlugKey(model.KindEvent, "ants-opening"),
		SlugKey(model.KindEvent, "paradise"),
	}
	for _, k := range eventKeys {
		if err := c.Set(ctx, k, []byte("{}"), time.Minute); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	clubKey := ListKey(model.KindClub, model.StatusApproved)
	_ = c.Set(ctx, clubKey, []byte("[]"), time.Minute)

	members, err := c.client.SMembers(ctx, c.indexKey("slug:event:")).Result()
	if err != nil || len(members) != 2 {
		t.Fatalf("slug index = %v, %v; want 2 members", members, err)
	}

	if err := InvalidateKind(ctx, c, model.KindEvent); err != nil {
		t.Fatalf("InvalidateKind failed: %v", err)
	}
	for _, k := range eventKeys {
		if has, _ := c.Has(ctx, k); has {
			t.Errorf("%s should be deleted", k)
		}
	}
	if n, _ := c.client.Exists(ctx, c.indexKey("slug:event:")).Result(); n != 0 {
		t.Error("index set should be deleted with its members")
	}
	if has, _ := c.Has(ctx, clubKey); !has {
		t.Error("club listing should survive event invalidation")
	}
}

func TestRedisCache_DeleteByArbitraryPrefix(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	_ = c.Set(ctx, "export:2026-07", []byte("a"), time.Minute)
	_ = c.Set(ctx, "export:2026-08", []byte("b"), time.Minute)
	_ = c.Set(ctx, "other", []byte("c"), time.Minute)

	if err := c.DeleteByPrefix(ctx, "export:"); err != nil {
		t.Fatalf("DeleteByPrefix failed: %v", err)
	}
	if has, _ := c.Has(ctx, "export:2026-07"); has {
		t.Error("prefixed key should be deleted")
	}
	if has, _ := c.Has(ctx, "other"); !has {
		t.Error("unrelated key should survive")
	}
}

func TestRedisCache_TypedRoundTrip(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()
	clubs := NewTypedCache[[]model.Club](c, time.Minute)

	key := ListKey(model.KindClub, model.StatusApproved)
	want := []model.Club{{Base: model.Base{ID: "c1", Name: "DC10"}, Capacity: 1500}}
	if err := clubs.Set(ctx, key, want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := clubs.Get(ctx, key)
	if !ok || len(got) != 1 || got[0].Name != "DC10" || got[0].Capacity != 1500 {
		t.Errorf("Get = %+v, %v", got, ok)
	}
}

func TestRedisCache_Stats(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()
	c.ResetStats()

	_ = c.Set(ctx, "k1", []byte("v"), time.Minute)
	_, _ = c.Get(ctx, "k1")
	_, _ = c.Get(ctx, "k1")
	_, _ = c.Get(ctx, "k2")

	s := c.Stats()
	if s.Sets != 1 || s.Hits != 2 || s.Misses != 1 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestRedisCache_Closed(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get after Close returned %v", err)
	}
	if err := c.Set(ctx, "k", nil, 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set after Close returned %v", err)
	}
	if err := c.Ping(ctx); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Ping after Close returned %v", err)
	}
}

func TestNewRedisCache_BadURL(t *testing.T) {
	for _, url := range []string{"", "invalid-url"} {
		if _, err := NewRedisCacheFromURL(url, "test:", time.Minute); err == nil {
			t.Errorf("NewRedisCacheFromURL(%q) should fail", url)
		}
	}
}
