package genstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisGen(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s, err := NewRedis(RedisConfig{Client: rdb, Namespace: "shop", TTL: ttl, CloseClient: true})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, mr
}

func TestRedisRequiresClient(t *testing.T) {
	if _, err := NewRedis(RedisConfig{}); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestRedisSnapshotAndBump(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisGen(t, 0)

	if g, err := s.Snapshot(ctx, "products"); err != nil || g != 0 {
		t.Fatalf("Snapshot on missing: g=%d err=%v", g, err)
	}
	for want := uint64(1); want <= 3; want++ {
		g, err := s.Bump(ctx, "products")
		if err != nil {
			t.Fatal(err)
		}
		if g != want {
			t.Fatalf("Bump = %d, want %d", g, want)
		}
	}
	if got, _ := mr.Get("gen:shop:products"); got != "3" {
		t.Fatalf("stored gen = %q, want 3", got)
	}
}

func TestRedisBumpWithTTLExpires(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisGen(t, time.Minute)

	if _, err := s.Bump(ctx, "users"); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("gen:shop:users"); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}
	mr.FastForward(2 * time.Minute)
	if g, _ := s.Snapshot(ctx, "users"); g != 0 {
		t.Fatalf("expired gen should read 0, got %d", g)
	}
}

func TestRedisSnapshotParseError(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisGen(t, 0)
	_ = mr.Set("gen:shop:orders", "not-a-number")
	if _, err := s.Snapshot(ctx, "orders"); err == nil {
		t.Fatalf("expected parse error")
	}
}
