package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/opencurio/keygate/pkg/models"
)

// RateLimitService bounds request throughput with a Redis-backed sliding
// window. Every tier counts in its own namespace, so the same identity
// under two tiers never shares a window.
//
// When Redis is unreachable the limiter fails closed: an outage denies
// traffic rather than waving it through unmetered.
type RateLimitService struct {
	redis   *redis.Client
	window  time.Duration
	logger  *logrus.Logger
	metrics *Metrics
}

func NewRateLimitService(redisClient *redis.Client, window time.Duration, logger *logrus.Logger, metrics *Metrics) *RateLimitService {
	if window <= 0 {
		window = 10 * time.Second
	}
	return &RateLimitService{
		redis:   redisClient,
		window:  window,
		logger:  logger,
		metrics: metrics,
	}
}

// IdentityFromKey builds the rate-limit identity for a verified API key.
func IdentityFromKey(keyID string) string {
	return "key:" + keyID
}

// IdentityFromIP builds the fallback identity for unauthenticated callers,
// so failed attempts never spend a key's budget.
func IdentityFromIP(ip string) string {
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// Limit records one request for the identity and reports whether it fits in
// the trailing window for the tier. ResetAt is derived from the oldest
// surviving entry so denied callers get an honest Retry-After.
func (s *RateLimitService) Limit(ctx context.Context, identity string, tier models.Tier) (models.RateLimitResult, error) {
	limit := tier.Limits().RequestsPerWindow
	key := fmt.Sprintf("ratelimit:%s:%s", tier, identity)

	now := time.Now()
	windowStart := now.Add(-s.window)

	pipe := s.redis.Pipeline()

	// Remove expired entries
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10))

	// Count surviving requests and remember the oldest for the reset time
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)

	// Record this request
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, s.window)

	if _, err := pipe.Exec(ctx); err != nil {
		// Fail closed: the counter store being down must not disable the
		// control it implements.
		return models.RateLimitResult{
			Success:   false,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   now.Add(s.window).UnixMilli(),
		}, fmt.Errorf("failed to execute rate limit pipeline: %w", err)
	}

	prior := int(countCmd.Val())
	remaining := limit - prior - 1
	if remaining < 0 {
		remaining = 0
	}

	resetAt := now.Add(s.window).UnixMilli()
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		resetAt = int64(oldest[0].Score) + s.window.Milliseconds()
	}

	result := models.RateLimitResult{
		Success:   prior < limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}

	if !result.Success {
		s.metrics.RateLimitDenials.WithLabelValues(string(tier)).Inc()
		s.logger.WithFields(logrus.Fields{
			"identity": identity,
			"tier":     tier,
			"limit":    limit,
		}).Warn("Rate limit exceeded")
	}

	return result, nil
}

// Reset clears the window for an identity/tier pair.
func (s *RateLimitService) Reset(ctx context.Context, identity string, tier models.Tier) error {
	key := fmt.Sprintf("ratelimit:%s:%s", tier, identity)
	return s.redis.Del(ctx, key).Err()
}
