package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fintutto/zugang/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyResolveOrg = "entitlement:resolve:org:%s"

// ResolveLimiter throttles entitlement resolution per organization. A nil
// limiter means the feature is disabled and every request passes.
type ResolveLimiter struct {
	enabled bool

	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewResolveLimiter(cfg config.Config) (*ResolveLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.ResolveRate <= 0 || limitCfg.ResolveBurst <= 0 {
		return nil, errors.New("resolve rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &ResolveLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.ResolveRate,
		burst:   limitCfg.ResolveBurst,
	}, nil
}

func (l *ResolveLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *ResolveLimiter) AllowOrg(ctx context.Context, orgID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyResolveOrg, strings.TrimSpace(orgID)), l.rate, l.burst)
}
