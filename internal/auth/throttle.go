package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const throttleKeyPrefix = "auth:attempts:"

// LoginThrottle caps credential attempts per username within a rolling
// window, backed by Redis. An unreachable Redis does not block logins.
type LoginThrottle struct {
	client *redis.Client
	max    int
	window time.Duration
	logger *zap.Logger
}

// NewLoginThrottle builds a throttle. A nil client disables it.
func NewLoginThrottle(client *redis.Client, max int, window time.Duration, logger *zap.Logger) *LoginThrottle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginThrottle{client: client, max: max, window: window, logger: logger}
}

// Allow records an attempt and reports whether it is within the limit.
func (t *LoginThrottle) Allow(ctx context.Context, username string) bool {
	if t == nil || t.client == nil || t.max <= 0 {
		return true
	}

	key := throttleKeyPrefix + username
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		t.logger.Warn("login throttle unavailable", zap.Error(err))
		return true
	}
	if count == 1 {
		t.client.Expire(ctx, key, t.window)
	}
	return count <= int64(t.max)
}

// Reset clears the attempt counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, username string) {
	if t == nil || t.client == nil {
		return
	}
	t.client.Del(ctx, throttleKeyPrefix+username)
}
