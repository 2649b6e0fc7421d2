package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "flex_reviews/internal/adapters/redis"
)

func TestCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	type payload struct {
		Items []string `json:"items"`
	}

	var out payload
	ok, err := c.Get(ctx, "missing", &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected miss")
	}

	in := payload{Items: []string{"a", "b"}}
	if err := c.Set(ctx, "k", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	ok, err = c.Get(ctx, "k", &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || len(out.Items) != 2 || out.Items[0] != "a" {
		t.Fatalf("unexpected value: %+v", out)
	}

	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	ok, _ = c.Get(ctx, "k", &out)
	if ok {
		t.Fatalf("expected miss after del")
	}
}

func TestCache_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	ctx := context.Background()

	if err := c.Set(ctx, "k", map[string]bool{"x": true}, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Second)

	var out map[string]bool
	ok, _ := c.Get(ctx, "k", &out)
	if ok {
		t.Fatalf("expected entry to expire")
	}
}
