package auth

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/jobcard-service/pkg/util/errorutil"
)

// LoginLimiter throttles credential checks per identity using a Redis counter
// with an expiring window. When Redis is unreachable the limiter fails open:
// login availability wins over throttling.
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
	logger      *zap.Logger
}

// NewLoginLimiter constructs a limiter. A nil client or non-positive budget
// disables enforcement.
func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration, logger *zap.Logger) *LoginLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginLimiter{client: client, maxAttempts: maxAttempts, window: window, logger: logger}
}

// Enforce counts one attempt and rejects once the identity has exhausted its
// budget inside the current window.
func (l *LoginLimiter) Enforce(ctx context.Context, identity string) error {
	if l == nil || l.client == nil || l.maxAttempts <= 0 {
		return nil
	}

	key := attemptKey(identity)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("login limiter unavailable", zap.Error(err))
		return nil
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.Warn("login limiter expire failed", zap.Error(err))
		}
	}
	if count > int64(l.maxAttempts) {
		return apperrors.NewTooManyRequests("too many login attempts, retry later")
	}
	return nil
}

// Clear resets the attempt counter after a successful login.
func (l *LoginLimiter) Clear(ctx context.Context, identity string) {
	if l == nil || l.client == nil {
		return
	}
	if err := l.client.Del(ctx, attemptKey(identity)).Err(); err != nil {
		l.logger.Warn("login limiter clear failed", zap.Error(err))
	}
}

func attemptKey(identity string) string {
	return "login_attempts:" + strings.ToLower(identity)
}
