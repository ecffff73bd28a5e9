package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallplates/plates/internal/clock"
	"github.com/smallplates/plates/internal/config"
	"go.uber.org/zap"
)

const (
	keyCredential        = "auth:credential:%s"
	keyInvitationAccept  = "invitation:accept:%s"
	keyAccountDeleteLock = "account:delete:lock:%s"

	accountDeleteLockTTL = 30 * time.Second
)

// CredentialLimiter throttles password-bearing requests (login,
// invitation acceptance, account deletion) per client key. Backed by
// redis when configured, otherwise by an in-process bucket. When redis
// fails at runtime the limiter degrades to the in-process bucket
// rather than blocking the request path.
type CredentialLimiter struct {
	enabled bool

	bucket *TokenBucket
	lock   *deletionLock

	local     *localBucket
	localLock *localLocker

	log *zap.Logger

	credentialRate  float64
	credentialBurst int
	acceptRate      float64
	acceptBurst     int
}

func NewCredentialLimiter(cfg config.Config, clk clock.Clock, log *zap.Logger) (*CredentialLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	if limitCfg.CredentialRate <= 0 || limitCfg.CredentialBurst <= 0 {
		return nil, errors.New("credential rate limit must be positive")
	}
	if limitCfg.AcceptRate <= 0 || limitCfg.AcceptBurst <= 0 {
		return nil, errors.New("accept rate limit must be positive")
	}

	limiter := &CredentialLimiter{
		enabled:         true,
		local:           newLocalBucket(clk),
		localLock:       newLocalLocker(clk),
		log:             log.Named("ratelimit"),
		credentialRate:  limitCfg.CredentialRate,
		credentialBurst: limitCfg.CredentialBurst,
		acceptRate:      limitCfg.AcceptRate,
		acceptBurst:     limitCfg.AcceptBurst,
	}

	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: strings.TrimSpace(cfg.RedisPassword),
			DB:       limitCfg.RedisDB,
		})
		limiter.bucket = NewTokenBucket(client)
		limiter.lock = newDeletionLock(client)
	}

	return limiter, nil
}

func (l *CredentialLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowCredential gates login and account-deletion attempts for one
// client key, usually the remote address.
func (l *CredentialLimiter) AllowCredential(ctx context.Context, key string) bool {
	if !l.Enabled() {
		return true
	}
	return l.allow(ctx, fmt.Sprintf(keyCredential, strings.TrimSpace(key)), l.credentialRate, l.credentialBurst)
}

// AllowAccept gates invitation acceptance attempts per token, keeping
// a leaked invitation link from being brute-forced against passwords.
func (l *CredentialLimiter) AllowAccept(ctx context.Context, key string) bool {
	if !l.Enabled() {
		return true
	}
	return l.allow(ctx, fmt.Sprintf(keyInvitationAccept, strings.TrimSpace(key)), l.acceptRate, l.acceptBurst)
}

func (l *CredentialLimiter) allow(ctx context.Context, key string, rate float64, burst int) bool {
	if l.bucket != nil {
		allowed, err := l.bucket.Allow(ctx, key, rate, burst)
		if err == nil {
			return allowed
		}
		l.log.Warn("redis limiter unavailable, using in-process bucket", zap.Error(err))
	}
	return l.local.Allow(key, rate, burst)
}

// TryLockAccount serializes account deletion per user so two racing
// delete requests cannot interleave cascade steps.
func (l *CredentialLimiter) TryLockAccount(ctx context.Context, userID string) (string, bool) {
	if !l.Enabled() {
		return "", true
	}
	key := fmt.Sprintf(keyAccountDeleteLock, strings.TrimSpace(userID))
	if l.lock != nil {
		token, ok, err := l.lock.acquire(ctx, key, accountDeleteLockTTL)
		if err == nil {
			return token, ok
		}
		l.log.Warn("redis lock unavailable, using in-process lock", zap.Error(err))
	}
	return l.localLock.TryLock(key, accountDeleteLockTTL)
}

func (l *CredentialLimiter) ReleaseAccount(ctx context.Context, userID, token string) {
	if !l.Enabled() || token == "" {
		return
	}
	key := fmt.Sprintf(keyAccountDeleteLock, strings.TrimSpace(userID))
	if l.lock != nil {
		_ = l.lock.releaseHeld(ctx, key, token)
	}
	l.localLock.Release(key, token)
}
