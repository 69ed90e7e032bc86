package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicepos/internal/config"
)

const keyWriteBusiness = "invoicepos:write:%s:%s"

// WriteLimiter throttles mutating requests per business and route.
type WriteLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewWriteLimiter(cfg config.Config, client *redis.Client) (*WriteLimiter, error) {
	if client == nil {
		return nil, nil
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, errors.New("write rate limit must be positive")
	}
	return &WriteLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.RateLimitRPS,
		burst:  cfg.RateLimitBurst,
	}, nil
}

func (l *WriteLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *WriteLimiter) Allow(ctx context.Context, businessID, endpoint string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyWriteBusiness, strings.TrimSpace(businessID), strings.TrimSpace(endpoint))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
