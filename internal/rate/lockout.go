package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockoutConfig holds the failed-login lockout policy.
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockout locks an email for 15 minutes after 10 failed logins.
func DefaultLockout() LockoutConfig {
	return LockoutConfig{Threshold: 10, Duration: 15 * time.Minute}
}

// Lockout counts failed logins per email and reports when an email should
// be refused. The counter expires Duration after the first failure.
type Lockout struct {
	counter *Limiter
	config  LockoutConfig
}

// NewLockout creates a Lockout. A zero Threshold disables it.
func NewLockout(redisClient redis.UniversalClient, prefix string, cfg LockoutConfig) *Lockout {
	return &Lockout{counter: New(redisClient, prefix), config: cfg}
}

func (l *Lockout) enabled() bool {
	return l != nil && l.config.Threshold > 0 && l.config.Duration > 0
}

func (l *Lockout) key(email string) string {
	return l.counter.prefix + ":lockout:" + strings.ToLower(strings.TrimSpace(email))
}

// Locked reports whether email has reached the failure threshold.
func (l *Lockout) Locked(ctx context.Context, email string) (bool, error) {
	if !l.enabled() || email == "" {
		return false, nil
	}
	count, err := l.counter.redis.Get(ctx, l.key(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count >= int64(l.config.Threshold), nil
}

// RecordFailure counts one failed login and reports whether the threshold
// is now reached.
func (l *Lockout) RecordFailure(ctx context.Context, email string) (bool, error) {
	if !l.enabled() || email == "" {
		return false, nil
	}
	count, err := l.counter.incrementWithTTL(ctx, l.key(email), l.config.Duration)
	if err != nil {
		return false, err
	}
	return count >= int64(l.config.Threshold), nil
}

// Reset clears the failure counter, e.g. after a successful login.
func (l *Lockout) Reset(ctx context.Context, email string) error {
	if !l.enabled() || email == "" {
		return nil
	}
	if err := l.counter.redis.Del(ctx, l.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
