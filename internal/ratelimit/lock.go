package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Release is compare-and-delete on the holder token, so a lock that
// expired and was re-acquired by another instance is never clobbered.
const releaseIfHeldScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var errLockUnavailable = errors.New("redis lock is not configured")

// deletionLock is the redis side of the per-user account-deletion mutex:
// SetNX with a random holder token and a short TTL, so two racing DELETE
// requests cannot both start tearing an account down and a crashed holder
// frees itself.
type deletionLock struct {
	client  *redis.Client
	release *redis.Script
}

func newDeletionLock(client *redis.Client) *deletionLock {
	if client == nil {
		return nil
	}
	return &deletionLock{
		client:  client,
		release: redis.NewScript(releaseIfHeldScript),
	}
}

// acquire returns the holder token when the lock was taken. A false
// result with a nil error means another request already holds it.
func (d *deletionLock) acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if d == nil || d.client == nil {
		return "", false, errLockUnavailable
	}
	if key == "" || ttl <= 0 {
		return "", false, errors.New("lock key and ttl are required")
	}

	token := uuid.NewString()
	taken, err := d.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !taken {
		return "", false, err
	}
	return token, true, nil
}

func (d *deletionLock) releaseHeld(ctx context.Context, key, token string) error {
	if d == nil || d.client == nil || key == "" || token == "" {
		return nil
	}
	return d.release.Run(ctx, d.client, []string{key}, token).Err()
}
