package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrRateLimited is returned once an identifier exceeds its failure budget.
var ErrRateLimited = errors.New("too many failed sign-in attempts")

const signInKeyPrefix = "signin:fail:"

// SignInLimiter counts failed sign-in attempts per email in a fixed window.
// Redis failures are logged and never block a sign-in.
type SignInLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
	logger      *zap.Logger
}

// NewSignInLimiter builds a limiter. A nil client disables limiting.
func NewSignInLimiter(client *redis.Client, maxAttempts int, window time.Duration, logger *zap.Logger) *SignInLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignInLimiter{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
	}
}

// Check reports ErrRateLimited when the identifier has used up its attempts.
func (l *SignInLimiter) Check(ctx context.Context, identifier string) error {
	if !l.enabled() {
		return nil
	}

	raw, err := l.client.Get(ctx, signInKey(identifier)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		l.logger.Warn("sign-in limiter unavailable", zap.Error(err))
		return nil
	}

	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		l.logger.Warn("sign-in limiter counter corrupt", zap.String("value", raw))
		return nil
	}
	if count >= int64(l.maxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// Fail records a failed attempt and returns the current count.
func (l *SignInLimiter) Fail(ctx context.Context, identifier string) int64 {
	if !l.enabled() {
		return 0
	}

	key := signInKey(identifier)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("sign-in limiter unavailable", zap.Error(err))
		return 0
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.Warn("sign-in limiter expire failed", zap.Error(err))
		}
	}
	return count
}

// Reset clears the failure counter after a successful sign-in.
func (l *SignInLimiter) Reset(ctx context.Context, identifier string) {
	if !l.enabled() {
		return
	}
	if err := l.client.Del(ctx, signInKey(identifier)).Err(); err != nil {
		l.logger.Warn("sign-in limiter reset failed", zap.Error(err))
	}
}

func (l *SignInLimiter) enabled() bool {
	return l != nil && l.client != nil && l.maxAttempts > 0
}

func signInKey(identifier string) string {
	return signInKeyPrefix + strings.ToLower(strings.TrimSpace(identifier))
}
