package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
)

func TestAuthRateLimiterEnforcesRate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	lim, err := NewAuthRateLimiter(client, limiter.Rate{Period: time.Minute, Limit: 2})
	if err != nil {
		t.Fatalf("NewAuthRateLimiter: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		c, err := lim.Get(ctx, "203.0.113.9")
		if err != nil {
			t.Fatalf("Get %d: %v", i, err)
		}
		if c.Reached {
			t.Fatalf("request %d should be within the limit", i)
		}
	}
	c, err := lim.Get(ctx, "203.0.113.9")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !c.Reached {
		t.Fatal("third request should exceed the limit")
	}

	other, err := lim.Get(ctx, "198.51.100.7")
	if err != nil {
		t.Fatalf("Get other: %v", err)
	}
	if other.Reached {
		t.Fatal("a different client must have its own window")
	}
}
