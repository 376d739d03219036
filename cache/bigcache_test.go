package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type entry struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

func TestBigCacheRoundTrip(t *testing.T) {
	c, err := NewBigCache(time.Minute, 1)
	if err != nil {
		t.Fatalf("NewBigCache: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	var got entry
	if err := c.Get(ctx, "gcj02:116.4,39.9", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}

	want := entry{Lng: 116.39720000049387, Lat: 39.91629999976762}
	if err := c.Set(ctx, "gcj02:116.4,39.9", want, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Get(ctx, "gcj02:116.4,39.9", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}

	ok, err := c.Exists(ctx, "gcj02:116.4,39.9")
	if err != nil || !ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	if err := c.Delete(ctx, "gcj02:116.4,39.9", "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := c.Exists(ctx, "gcj02:116.4,39.9"); ok {
		t.Errorf("key still exists after Delete")
	}

	stats := c.Stats()
	if stats.Hits < 1 || stats.Misses < 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
