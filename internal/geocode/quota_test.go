package geocode

import (
	"context"
	"log/slog"
	"os"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestNewQuotaTracker_DefaultsToMemoryBackend(t *testing.T) {
	q, err := newQuotaTracker(discardLogger(), 100, 0.9, "", "")
	if err != nil {
		t.Fatalf("newQuotaTracker() error = %v", err)
	}
	defer q.close()

	allowed, err := q.reserve(context.Background())
	if err != nil {
		t.Fatalf("reserve() error = %v", err)
	}
	if !allowed {
		t.Error("expected first reservation against a fresh quota to be allowed")
	}
}

func TestNewQuotaTracker_RedisBackend(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping redis-backed quota test")
	}

	q, err := newQuotaTracker(discardLogger(), 100, 0.9, "redis", addr)
	if err != nil {
		t.Fatalf("newQuotaTracker() with redis backend error = %v", err)
	}
	defer q.close()

	allowed, err := q.reserve(context.Background())
	if err != nil {
		t.Fatalf("reserve() error = %v", err)
	}
	if !allowed {
		t.Error("expected first reservation against a fresh quota to be allowed")
	}
}
