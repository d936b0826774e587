package redis

import (
	"context"
	"testing"
	"time"
)

func TestIdempotencyStore_ReplaysExistingResponse(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if err := client.Set(ctx, store.prefix+"wd-req-1", `{"id":"wd-1"}`, time.Minute).Err(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	seen, resp, err := store.CheckAndSet(ctx, "wd-req-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if !seen || string(resp) != `{"id":"wd-1"}` {
		t.Fatalf("expected replayed response, got seen=%v resp=%s", seen, resp)
	}
}

func TestIdempotencyStore_ClaimsNewKeyWithMarker(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	seen, resp, err := store.CheckAndSet(ctx, "esc-lock-1", nil, time.Minute)
	if err != nil || seen || resp != nil {
		t.Fatalf("unexpected result: seen=%v resp=%v err=%v", seen, resp, err)
	}

	val, err := client.Get(ctx, store.prefix+"esc-lock-1").Result()
	if err != nil || val != inFlightMarker {
		t.Fatalf("expected in-flight marker, got val=%s err=%v", val, err)
	}
}

func TestIdempotencyStore_SecondCallerSeesMarker(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "race", nil, time.Minute); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	seen, resp, err := store.CheckAndSet(ctx, "race", nil, time.Minute)
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if !seen || string(resp) != inFlightMarker {
		t.Fatalf("expected marker for the loser of the race, got seen=%v resp=%s", seen, resp)
	}
}

func TestIdempotencyStore_UpdateReplacesMarker(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "fund-1", nil, time.Minute); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := store.Update(ctx, "fund-1", []byte(`{"status":"success"}`), time.Minute); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	val, err := client.Get(ctx, store.prefix+"fund-1").Result()
	if err != nil || val != `{"status":"success"}` {
		t.Fatalf("expected final response, got val=%s err=%v", val, err)
	}
}
