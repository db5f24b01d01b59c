package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/userrole/auth-api/internal/core/domain"
)

// startRedis runs a throwaway Redis and returns a connected client.
func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}

	client, err := Connect(ctx, Config{Addr: opts.Addr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testUser(id int64) *domain.User {
	return &domain.User{
		ID:           id,
		Username:     fmt.Sprintf("user%d", id),
		PasswordHash: "$2a$10$hash",
		RoleID:       2,
		Role:         &domain.Role{ID: 2, Name: "ROLE_USER"},
	}
}

func TestIdentityCache_FillThenGet(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)
	cache := NewIdentityCache(client, time.Minute)

	if _, ok, err := cache.Get(ctx, 1); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	stamp, err := cache.Stamp(ctx, 1)
	if err != nil {
		t.Fatalf("stamp: %v", err)
	}
	filled, err := cache.Fill(ctx, testUser(1), stamp)
	if err != nil || !filled {
		t.Fatalf("fill: filled=%v err=%v", filled, err)
	}

	got, ok, err := cache.Get(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Username != "user1" || !got.HasRole(domain.RoleUser) || got.PasswordHash != "" {
		t.Fatalf("unexpected cached user: %+v", got)
	}

	ttl, err := client.PTTL(ctx, identityKey(1)).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected entry ttl within a minute, got %v (%v)", ttl, err)
	}
}

func TestIdentityCache_EvictVoidsEarlierStamp(t *testing.T) {
	ctx := context.Background()
	cache := NewIdentityCache(startRedis(t), time.Minute)

	stale, _ := cache.Stamp(ctx, 1)
	other, _ := cache.Stamp(ctx, 2)

	if err := cache.Evict(ctx, 1); err != nil {
		t.Fatalf("evict: %v", err)
	}

	if filled, err := cache.Fill(ctx, testUser(1), stale); err != nil || filled {
		t.Fatalf("fill after evict: filled=%v err=%v", filled, err)
	}
	if _, ok, _ := cache.Get(ctx, 1); ok {
		t.Fatal("evicted user must not be cached")
	}
	if filled, err := cache.Fill(ctx, testUser(2), other); err != nil || !filled {
		t.Fatalf("eviction of user 1 must not affect user 2: filled=%v err=%v", filled, err)
	}

	fresh, _ := cache.Stamp(ctx, 1)
	if filled, err := cache.Fill(ctx, testUser(1), fresh); err != nil || !filled {
		t.Fatalf("fill with fresh stamp: filled=%v err=%v", filled, err)
	}
}

func TestIdentityCache_EvictDropsEntryAndExpiresMarker(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)
	cache := NewIdentityCache(client, time.Minute)

	stamp, _ := cache.Stamp(ctx, 3)
	if _, err := cache.Fill(ctx, testUser(3), stamp); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if err := cache.Evict(ctx, 3); err != nil {
		t.Fatalf("evict: %v", err)
	}

	if _, ok, _ := cache.Get(ctx, 3); ok {
		t.Fatal("expected miss after evict")
	}
	ttl, err := client.TTL(ctx, userGenerationKey(3)).Result()
	if err != nil || ttl <= 0 || ttl > generationTTL {
		t.Fatalf("generation marker ttl = %v (%v)", ttl, err)
	}
}

func TestIdentityCache_EvictAllPaginatesAndVoidsStamps(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)
	cache := NewIdentityCache(client, time.Minute)

	const n = scanBatch*2 + 17
	for id := int64(1); id <= n; id++ {
		stamp, _ := cache.Stamp(ctx, id)
		if filled, err := cache.Fill(ctx, testUser(id), stamp); err != nil || !filled {
			t.Fatalf("fill %d: filled=%v err=%v", id, filled, err)
		}
	}
	stale, _ := cache.Stamp(ctx, n+1)

	if err := cache.EvictAll(ctx); err != nil {
		t.Fatalf("evict all: %v", err)
	}

	keys, err := client.Keys(ctx, identityPrefix+"*").Result()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected every entry dropped, %d left", len(keys))
	}
	if filled, err := cache.Fill(ctx, testUser(n+1), stale); err != nil || filled {
		t.Fatalf("fill after evict all: filled=%v err=%v", filled, err)
	}
}

func TestIdentityCache_CorruptEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)
	cache := NewIdentityCache(client, time.Minute)

	if err := client.Set(ctx, identityKey(9), "not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}
	if u, ok, err := cache.Get(ctx, 9); err != nil || ok || u != nil {
		t.Fatalf("expected miss, got %+v ok=%v err=%v", u, ok, err)
	}
}
