package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLinkIdempotencyStoreForTest(t *testing.T) *RedisLinkIdempotencyStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLinkIdempotencyStore(client, "linkidem")
}

func TestLinkIdempotencyBeginNewThenInProgress(t *testing.T) {
	store := newLinkIdempotencyStoreForTest(t)
	ctx := context.Background()

	first, err := store.Begin(ctx, "owner-7", "key-1", "app.example.com", time.Hour)
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if first.State != IdempotencyStateNew {
		t.Fatalf("first Begin state = %q, want new", first.State)
	}

	second, err := store.Begin(ctx, "owner-7", "key-1", "app.example.com", time.Hour)
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if second.State != IdempotencyStateInProgress {
		t.Fatalf("second Begin state = %q, want in_progress", second.State)
	}
}

func TestLinkIdempotencyReplayReturnsCachedResponse(t *testing.T) {
	store := newLinkIdempotencyStoreForTest(t)
	ctx := context.Background()

	if _, err := store.Begin(ctx, "owner-7", "key-1", "app.example.com", time.Hour); err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	cached := CachedHTTPResponse{
		StatusCode:  200,
		ContentType: "application/json",
		Body:        []byte(`{"success":true}`),
	}
	if err := store.Complete(ctx, "owner-7", "key-1", "app.example.com", cached, time.Hour); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	result, err := store.Begin(ctx, "owner-7", "key-1", "app.example.com", time.Hour)
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if result.State != IdempotencyStateReplay {
		t.Fatalf("Begin state = %q, want replay", result.State)
	}
	if result.Cached == nil || result.Cached.StatusCode != 200 || string(result.Cached.Body) != `{"success":true}` {
		t.Fatalf("cached response = %+v", result.Cached)
	}
}

func TestLinkIdempotencyKeyReuseWithDifferentDomainConflicts(t *testing.T) {
	store := newLinkIdempotencyStoreForTest(t)
	ctx := context.Background()

	if _, err := store.Begin(ctx, "owner-7", "key-1", "app.example.com", time.Hour); err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	result, err := store.Begin(ctx, "owner-7", "key-1", "other.example.com", time.Hour)
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if result.State != IdempotencyStateConflict {
		t.Fatalf("Begin state = %q, want conflict", result.State)
	}
}

func TestLinkIdempotencyScopesIsolateOwners(t *testing.T) {
	store := newLinkIdempotencyStoreForTest(t)
	ctx := context.Background()

	if _, err := store.Begin(ctx, "owner-7", "key-1", "app.example.com", time.Hour); err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	result, err := store.Begin(ctx, "owner-8", "key-1", "app.example.com", time.Hour)
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if result.State != IdempotencyStateNew {
		t.Fatalf("Begin state for second owner = %q, want new", result.State)
	}
}
