package middleware

import (
	"context"
	"time"
)

// RateLimitPolicy combines a token-bucket burst allowance with a sustained
// sliding-window ceiling. Both gates must pass for a request to proceed.
type RateLimitPolicy struct {
	SustainedLimit    int
	SustainedWindow   time.Duration
	BurstCapacity     int
	BurstRefillPerSec float64
}

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Remaining  int
	ResetAt    time.Time
}

func normalizePolicy(policy RateLimitPolicy) RateLimitPolicy {
	if policy.SustainedLimit <= 0 {
		policy.SustainedLimit = 1
	}
	if policy.SustainedWindow <= 0 {
		policy.SustainedWindow = time.Second
	}
	if policy.BurstCapacity <= 0 {
		policy.BurstCapacity = policy.SustainedLimit
	}
	if policy.BurstRefillPerSec <= 0 {
		policy.BurstRefillPerSec = float64(policy.SustainedLimit) / policy.SustainedWindow.Seconds()
	}
	return policy
}

type policyLimiter struct {
	backend *RedisRateLimiter
	burst   int
}

// NewRedisLimiterAdapter exposes the redis limiter through the Limiter
// interface used by the middleware, deriving the policy from the configured
// limit, window and burst.
func NewRedisLimiterAdapter(backend *RedisRateLimiter, burst int) Limiter {
	return &policyLimiter{backend: backend, burst: burst}
}

func (l *policyLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	policy := normalizePolicy(RateLimitPolicy{
		SustainedLimit:  limit,
		SustainedWindow: window,
		BurstCapacity:   l.burst,
	})
	decision, err := l.backend.Allow(ctx, key, policy)
	if err != nil {
		return false, 0, err
	}
	return decision.Allowed, decision.RetryAfter, nil
}
