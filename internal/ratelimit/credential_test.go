package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallplates/plates/internal/clock"
	"github.com/smallplates/plates/internal/config"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T) (*CredentialLimiter, *clock.FakeClock) {
	t.Helper()

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cfg := config.Config{
		RateLimit: config.RateLimitConfig{
			Enabled:         true,
			CredentialRate:  1,
			CredentialBurst: 3,
			AcceptRate:      1,
			AcceptBurst:     2,
		},
	}
	limiter, err := NewCredentialLimiter(cfg, clk, zap.NewNop())
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	return limiter, clk
}

func TestCredentialBurstThenRefused(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !limiter.AllowCredential(ctx, "10.0.0.1") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if limiter.AllowCredential(ctx, "10.0.0.1") {
		t.Fatal("burst exhausted, attempt should be refused")
	}
}

func TestCredentialRefillOverTime(t *testing.T) {
	limiter, clk := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.AllowCredential(ctx, "10.0.0.2")
	}
	if limiter.AllowCredential(ctx, "10.0.0.2") {
		t.Fatal("bucket should be empty")
	}

	clk.Advance(2 * time.Second)
	if !limiter.AllowCredential(ctx, "10.0.0.2") {
		t.Fatal("bucket should have refilled")
	}
}

func TestCredentialKeysIsolated(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.AllowCredential(ctx, "10.0.0.3")
	}
	if !limiter.AllowCredential(ctx, "10.0.0.4") {
		t.Fatal("a different key should have its own bucket")
	}
}

func TestAcceptBucketSeparateFromCredential(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.AllowCredential(ctx, "10.0.0.5")
	}
	if !limiter.AllowAccept(ctx, "10.0.0.5") {
		t.Fatal("accept bucket should be independent")
	}
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	limiter, err := NewCredentialLimiter(config.Config{}, clk, zap.NewNop())
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	if limiter != nil {
		t.Fatal("disabled config should yield a nil limiter")
	}
	for i := 0; i < 100; i++ {
		if !limiter.AllowCredential(context.Background(), "anyone") {
			t.Fatal("nil limiter must allow")
		}
	}
}

func TestAccountLock(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	token, ok := limiter.TryLockAccount(ctx, "42")
	if !ok {
		t.Fatal("first lock should succeed")
	}
	if _, ok := limiter.TryLockAccount(ctx, "42"); ok {
		t.Fatal("second lock on same account should fail")
	}
	if _, ok := limiter.TryLockAccount(ctx, "43"); !ok {
		t.Fatal("other account should lock independently")
	}

	limiter.ReleaseAccount(ctx, "42", token)
	if _, ok := limiter.TryLockAccount(ctx, "42"); !ok {
		t.Fatal("released lock should be reacquirable")
	}
}

func TestAccountLockExpires(t *testing.T) {
	limiter, clk := newTestLimiter(t)
	ctx := context.Background()

	if _, ok := limiter.TryLockAccount(ctx, "44"); !ok {
		t.Fatal("first lock should succeed")
	}
	clk.Advance(accountDeleteLockTTL + time.Second)
	if _, ok := limiter.TryLockAccount(ctx, "44"); !ok {
		t.Fatal("expired lock should be reacquirable")
	}
}
