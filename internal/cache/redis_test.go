package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diemthi/thpt-score-backend/internal/config"
	"github.com/rs/zerolog"
)

var errStubBackend = errors.New("connection refused")

// unreachableConfig points the client at a port nothing listens on, with
// timeouts and retries cut down so the constructor fails fast.
func unreachableConfig() *config.Config {
	return &config.Config{
		RedisHost:            "127.0.0.1",
		RedisPort:            "1",
		RedisConnectTimeout:  100 * time.Millisecond,
		RedisCommandTimeout:  100 * time.Millisecond,
		RedisMaxRetries:      0,
		RedisRetryBackoff:    time.Millisecond,
		RedisMaxRetryBackoff: time.Millisecond,
	}
}

func TestNewRedisStoreDegradedStart(t *testing.T) {
	s := NewRedisStore(unreachableConfig(), zerolog.Nop())
	defer s.Close()

	if s.IsLive() {
		t.Fatal("store claims liveness with no backend")
	}
}

func TestDegradedStoreIsInert(t *testing.T) {
	s := NewRedisStore(unreachableConfig(), zerolog.Nop())
	defer s.Close()

	ctx := context.Background()

	// None of these may block on the dead backend or panic; reads are
	// misses, writes are no-ops.
	s.Set(ctx, "k", []byte("v"), time.Minute)
	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("degraded Get reported a hit")
	}
	s.Delete(ctx, "k")
	s.DeletePattern(ctx, "k:*")
	s.Reset(ctx)
}

func TestDegradedOperationsReturnQuickly(t *testing.T) {
	s := NewRedisStore(unreachableConfig(), zerolog.Nop())
	defer s.Close()

	start := time.Now()
	for i := 0; i < 100; i++ {
		s.Get(context.Background(), "k")
	}
	// The liveness flag short-circuits before any network I/O, so even a
	// hundred calls finish in well under one dial timeout.
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("100 degraded gets took %v", elapsed)
	}
}

func TestMarkDownIgnoresCallerCancellation(t *testing.T) {
	s := NewRedisStore(unreachableConfig(), zerolog.Nop())
	defer s.Close()

	// A canceled request context means the client went away, not that the
	// backend did; the liveness flag must survive it.
	s.live.Store(true)
	s.markDown(context.Canceled, "get", "k")
	if !s.IsLive() {
		t.Fatal("caller cancellation degraded the store")
	}

	// A real backend error still flips the flag.
	s.markDown(errStubBackend, "get", "k")
	if s.IsLive() {
		t.Fatal("backend error did not degrade the store")
	}
}

func TestGetWithCanceledContextKeepsLiveness(t *testing.T) {
	s := NewRedisStore(unreachableConfig(), zerolog.Nop())
	defer s.Close()

	s.live.Store(true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("canceled Get reported a hit")
	}
	if !s.IsLive() {
		t.Error("canceled Get degraded the store")
	}
}

func TestCloseStopsMonitor(t *testing.T) {
	s := NewRedisStore(unreachableConfig(), zerolog.Nop())
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// A second operation after Close must not panic.
	if _, ok := s.Get(context.Background(), "k"); ok {
		t.Error("closed store reported a hit")
	}
}
