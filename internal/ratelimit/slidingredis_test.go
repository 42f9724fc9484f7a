package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiter(t *testing.T) (Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Limiter{Client: client, Prefix: "ratelimit:compute:"}, mr
}

func TestLimiterSlidingWindow(t *testing.T) {
	limiter, mr := newLimiter(t)
	ctx := context.Background()
	window := 2 * time.Second
	max := 2

	// A buyer recomputing a quotation twice stays inside the window.
	for i := 0; i < max; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "10.0.0.7", window, max)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !allowed {
			t.Fatalf("expected compute %d to be allowed", i)
		}
		if remaining != max-(i+1) {
			t.Fatalf("unexpected remaining: %d", remaining)
		}
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "10.0.0.7", window, max)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed {
		t.Fatal("expected third compute to be rejected")
	}
	if remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", remaining)
	}

	mr.FastForward(window)

	allowed, _, _, err = limiter.Allow(ctx, "10.0.0.7", window, max)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !allowed {
		t.Fatal("expected compute after window to be allowed")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	limiter, _ := newLimiter(t)
	ctx := context.Background()

	allowed, _, _, err := limiter.Allow(ctx, "10.0.0.7", time.Second, 1)
	if err != nil || !allowed {
		t.Fatalf("first caller: allowed=%v err=%v", allowed, err)
	}
	allowed, _, _, err = limiter.Allow(ctx, "10.0.0.8", time.Second, 1)
	if err != nil {
		t.Fatalf("second caller: %v", err)
	}
	if !allowed {
		t.Fatal("one caller's compute burst must not throttle another")
	}
}

func TestLimiterDisabledWithoutClient(t *testing.T) {
	limiter := Limiter{}
	allowed, _, _, err := limiter.Allow(context.Background(), "10.0.0.7", time.Second, 5)
	if err != nil || !allowed {
		t.Fatalf("expected open limiter, allowed=%v err=%v", allowed, err)
	}
}
