package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFixedWindowLimiterRedis(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 2, time.Second)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	if !limiter.Allow("203.0.113.7") {
		t.Fatalf("first request should pass")
	}
	if !limiter.Allow("203.0.113.7") {
		t.Fatalf("second request should pass")
	}
	if limiter.Allow("203.0.113.7") {
		t.Fatalf("third request should be blocked")
	}
	// Other clients keep their own window.
	if !limiter.Allow("203.0.113.8") {
		t.Fatalf("different client should pass")
	}
}

func TestFixedWindowLimiterWindowResets(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 1, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	if !limiter.Allow("203.0.113.7") {
		t.Fatalf("first request should pass")
	}
	if limiter.Allow("203.0.113.7") {
		t.Fatalf("second request in window should be blocked")
	}
	time.Sleep(60 * time.Millisecond)
	if !limiter.Allow("203.0.113.7") {
		t.Fatalf("request in next window should pass")
	}
}

func TestFixedWindowLimiterRedisFailClosed(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 1, time.Second)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	redis.Close()
	if limiter.Allow("203.0.113.7") {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestFixedWindowLimiterRequiresRedisAddr(t *testing.T) {
	limiter, err := NewRedisFixedWindowLimiter("", "", "test:ratelimit", 1, time.Second)
	if err == nil || limiter != nil {
		t.Fatalf("expected constructor error for empty redis addr")
	}
}
