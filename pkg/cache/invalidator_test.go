package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisInvalidatorDeletesViewKeys(t *testing.T) {
	redis := miniredis.RunT(t)
	if err := redis.Set("chattala:view:marketplace", "cached"); err != nil {
		t.Fatalf("seed key: %v", err)
	}
	if err := redis.Set("chattala:view:listing:l1", "cached"); err != nil {
		t.Fatalf("seed key: %v", err)
	}

	inv := NewRedisInvalidator(redis.Addr(), "", "")
	if err := inv.Invalidate(context.Background(), "marketplace", "listing:l1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if redis.Exists("chattala:view:marketplace") {
		t.Fatalf("marketplace view should be gone")
	}
	if redis.Exists("chattala:view:listing:l1") {
		t.Fatalf("listing view should be gone")
	}
}

func TestRedisInvalidatorNoViews(t *testing.T) {
	redis := miniredis.RunT(t)
	inv := NewRedisInvalidator(redis.Addr(), "", "")
	if err := inv.Invalidate(context.Background()); err != nil {
		t.Fatalf("empty invalidate should be a no-op, got %v", err)
	}
}
