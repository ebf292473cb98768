package cache

import (
	"context"
	"testing"
	"time"
)

type row struct {
	Name string `json:"name"`
}

func TestNewReportCacheAppliesDefaultTTL(t *testing.T) {
	t.Parallel()

	client := NewRedisClient(RedisConfig{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	c := NewReportCache[row](client, 0)
	if c.ttl != DefaultTTL {
		t.Fatalf("ttl = %s, want %s", c.ttl, DefaultTTL)
	}
	if c.key != StockReportKey {
		t.Fatalf("key = %q, want %q", c.key, StockReportKey)
	}
	if c.genKey != generationKey {
		t.Fatalf("generation key = %q, want %q", c.genKey, generationKey)
	}

	custom := NewReportCache[row](client, time.Minute)
	if custom.ttl != time.Minute {
		t.Fatalf("ttl = %s, want 1m", custom.ttl)
	}
}

func TestUnreachableRedisIsTreatedAsMiss(t *testing.T) {
	t.Parallel()

	client := NewRedisClient(RedisConfig{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	c := NewReportCache[row](client, time.Minute)
	ctx := context.Background()

	rows, generation, ok := c.Load(ctx)
	if ok || rows != nil {
		t.Fatalf("expected miss from unreachable redis, got %v, %t", rows, ok)
	}
	if generation >= 0 {
		t.Fatalf("expected an unusable generation after a failed read, got %d", generation)
	}
	if err := c.Store(ctx, generation, []row{{Name: "Basmati Rice"}}); err != nil {
		t.Fatalf("expected store with an unusable generation to be skipped, got %v", err)
	}
	if err := c.Store(ctx, 0, []row{{Name: "Basmati Rice"}}); err == nil {
		t.Fatal("expected store error from unreachable redis")
	}
	if err := c.Invalidate(ctx); err == nil {
		t.Fatal("expected invalidate error from unreachable redis")
	}
}
