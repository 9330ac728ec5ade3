package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestFixedWindowScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	for i := 0; i < 3; i++ {
		if _, _, err := client.FixedWindowAllow(ctx, "otp:order-a", 3, time.Minute); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	allowed, count, err := client.FixedWindowAllow(ctx, "otp:order-b", 3, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 1 {
		t.Fatalf("expected fresh window for second scope, allowed=%v count=%d", allowed, count)
	}
}

func TestLockOwnershipScripts(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.LockKey("cron-worker:prod")
	if ok, err := client.SetNX(ctx, key, "owner-1", time.Minute); err != nil || !ok {
		t.Fatalf("expected first setnx to win, ok=%v err=%v", ok, err)
	}
	if ok, _ := client.SetNX(ctx, key, "owner-2", time.Minute); ok {
		t.Fatal("expected second setnx to lose")
	}

	if ok, err := client.ExtendIfOwner(ctx, key, "owner-2", time.Minute); err != nil || ok {
		t.Fatalf("non-owner extend must fail, ok=%v err=%v", ok, err)
	}
	if ok, err := client.ExtendIfOwner(ctx, key, "owner-1", 2*time.Minute); err != nil || !ok {
		t.Fatalf("owner extend must succeed, ok=%v err=%v", ok, err)
	}
	if got := mock.expireCalls[len(mock.expireCalls)-1]; got.key != key || got.ttl != 2*time.Minute {
		t.Fatalf("unexpected extend call %+v", got)
	}

	if ok, err := client.ReleaseIfOwner(ctx, key, "owner-2"); err != nil || ok {
		t.Fatalf("non-owner release must keep the lock, ok=%v err=%v", ok, err)
	}
	if ok, err := client.ReleaseIfOwner(ctx, key, "owner-1"); err != nil || !ok {
		t.Fatalf("owner release must delete, ok=%v err=%v", ok, err)
	}
	if _, err := client.Get(ctx, key); err != redis.Nil {
		t.Fatalf("expected redis.Nil after release, got %v", err)
	}
}

func TestIncrWithTTLRejectsZeroWindow(t *testing.T) {
	client := &Client{store: newMockCmdable()}
	if _, err := client.IncrWithTTL(context.Background(), "bl:rate_limit:x", 0); err == nil {
		t.Fatal("expected error for a window without ttl")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "bl:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.RateLimitKey("scope"); got != "bl:rate_limit:scope" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.LockKey("cron-worker"); got != "bl:lock:cron-worker" {
		t.Fatalf("unexpected lock key %s", got)
	}
	if got := client.RateLimitKey(""); got != "bl:rate_limit" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

// mockCmdable keeps values in memory and emulates the client's Lua scripts by
// identity.
type mockCmdable struct {
	data        map[string]string
	counters    map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:     make(map[string]string),
		counters: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	key := keys[0]
	switch script {
	case incrWindowScript:
		m.counters[key]++
		if m.counters[key] == 1 {
			m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: time.Duration(args[0].(int64)) * time.Millisecond})
		}
		return redis.NewCmdResult(m.counters[key], nil)
	case releaseScript:
		if m.data[key] != args[0] {
			return redis.NewCmdResult(int64(0), nil)
		}
		delete(m.data, key)
		return redis.NewCmdResult(int64(1), nil)
	case extendScript:
		if m.data[key] != args[0] {
			return redis.NewCmdResult(int64(0), nil)
		}
		m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: time.Duration(args[1].(int64)) * time.Millisecond})
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(nil, fmt.Errorf("unexpected script"))
}
