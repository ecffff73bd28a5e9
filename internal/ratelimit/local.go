package ratelimit

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smallplates/plates/internal/clock"
)

// localBucket mirrors the redis token bucket in process memory. It is
// the fallback when redis is not configured, so single-instance
// deployments still get limiting without extra infrastructure.
type localBucket struct {
	mu      sync.Mutex
	clk     clock.Clock
	buckets map[string]*bucketState
}

type bucketState struct {
	tokens float64
	ts     time.Time
}

func newLocalBucket(clk clock.Clock) *localBucket {
	return &localBucket{
		clk:     clk,
		buckets: make(map[string]*bucketState),
	}
}

func (b *localBucket) Allow(key string, rate float64, burst int) bool {
	if key == "" || rate <= 0 || burst <= 0 {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clk.Now()
	state, ok := b.buckets[key]
	if !ok {
		state = &bucketState{tokens: float64(burst), ts: now}
		b.buckets[key] = state
	} else {
		delta := now.Sub(state.ts)
		if delta < 0 {
			delta = 0
		}
		state.tokens = min(float64(burst), state.tokens+delta.Seconds()*rate)
		state.ts = now
	}

	if state.tokens >= 1 {
		state.tokens--
		return true
	}
	return false
}

// localLocker serializes an operation per key within one process.
type localLocker struct {
	mu    sync.Mutex
	clk   clock.Clock
	locks map[string]localLock
}

type localLock struct {
	token     string
	expiresAt time.Time
}

func newLocalLocker(clk clock.Clock) *localLocker {
	return &localLocker{
		clk:   clk,
		locks: make(map[string]localLock),
	}
}

func (l *localLocker) TryLock(key string, ttl time.Duration) (string, bool) {
	if key == "" || ttl <= 0 {
		return "", false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	if held, ok := l.locks[key]; ok && held.expiresAt.After(now) {
		return "", false
	}

	token := uuid.NewString()
	l.locks[key] = localLock{token: token, expiresAt: now.Add(ttl)}
	return token, true
}

func (l *localLocker) Release(key, token string) {
	if key == "" || token == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.locks[key]; ok && held.token == token {
		delete(l.locks, key)
	}
}
