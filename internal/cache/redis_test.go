package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestRedisStore_RoundTrip(t *testing.T) {
	rawURL := os.Getenv("LECTERN_TEST_REDIS_URL")
	if rawURL == "" {
		t.Skip("LECTERN_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	store, err := OpenRedis(ctx, rawURL)
	if err != nil {
		t.Fatalf("OpenRedis returned error: %v", err)
	}
	store.prefix = "lectern:test:" + t.Name() + ":"
	t.Cleanup(func() {
		_ = store.Clear(ctx)
		_ = store.Close()
	})

	now := time.Now().UTC().Truncate(time.Second)
	if err := store.Set(ctx, Entry{Key: "k", Payload: []byte(`{"a":1}`), FetchedAt: now}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, ok, err := store.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = ok %v err %v, want hit", ok, err)
	}
	if string(got.Payload) != `{"a":1}` || !got.FetchedAt.Equal(now) {
		t.Fatalf("entry = %#v", got)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("entry present after Clear")
	}
}
