package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T, maxAttempts int, window time.Duration) (*LoginLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLoginLimiter(client, maxAttempts, window, zap.NewNop()), mr
}

func TestLoginLimiterAllowsWithinBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := limiter.Enforce(ctx, "tech@example.com"); err != nil {
			t.Fatalf("attempt %d rejected: %v", i+1, err)
		}
	}
	if err := limiter.Enforce(ctx, "tech@example.com"); err == nil {
		t.Error("attempt over budget allowed, want rejection")
	}
}

func TestLoginLimiterIsolatesIdentities(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if err := limiter.Enforce(ctx, "a@example.com"); err != nil {
		t.Fatalf("first identity rejected: %v", err)
	}
	if err := limiter.Enforce(ctx, "b@example.com"); err != nil {
		t.Errorf("second identity rejected: %v", err)
	}
}

func TestLoginLimiterWindowExpiry(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if err := limiter.Enforce(ctx, "tech@example.com"); err != nil {
		t.Fatalf("first attempt rejected: %v", err)
	}
	if err := limiter.Enforce(ctx, "tech@example.com"); err == nil {
		t.Fatal("second attempt allowed, want rejection")
	}

	mr.FastForward(61 * time.Second)

	if err := limiter.Enforce(ctx, "tech@example.com"); err != nil {
		t.Errorf("attempt after window rejected: %v", err)
	}
}

func TestLoginLimiterClear(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if err := limiter.Enforce(ctx, "tech@example.com"); err != nil {
		t.Fatalf("first attempt rejected: %v", err)
	}
	limiter.Clear(ctx, "tech@example.com")

	if err := limiter.Enforce(ctx, "tech@example.com"); err != nil {
		t.Errorf("attempt after clear rejected: %v", err)
	}
}

func TestLoginLimiterFailsOpen(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Minute)
	mr.Close()

	if err := limiter.Enforce(context.Background(), "tech@example.com"); err != nil {
		t.Errorf("Enforce() with Redis down = %v, want nil", err)
	}

	var disabled *LoginLimiter
	if err := disabled.Enforce(context.Background(), "tech@example.com"); err != nil {
		t.Errorf("Enforce() on nil limiter = %v, want nil", err)
	}
}
