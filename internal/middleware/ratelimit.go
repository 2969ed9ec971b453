package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/opencurio/keygate/internal/services"
	"github.com/opencurio/keygate/pkg/models"
)

// RateLimiter enforces the sliding window for one identity/tier pair.
type RateLimiter interface {
	Limit(ctx context.Context, identity string, tier models.Tier) (models.RateLimitResult, error)
}

// RateLimit meters requests after authentication. The identity is the
// verified key id when auth ran first, otherwise the caller's address.
// Limiter errors surface as a denial (the limiter fails closed), never as a
// free pass.
func RateLimit(limiter RateLimiter, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := services.IdentityFromIP(c.ClientIP())
		if keyID := c.GetString("key_id"); keyID != "" {
			identity = services.IdentityFromKey(keyID)
		}

		tier := models.TierFree
		if v, exists := c.Get("key_tier"); exists {
			if t, ok := v.(models.Tier); ok {
				tier = t
			}
		}

		result, err := limiter.Limit(c.Request.Context(), identity, tier)
		if err != nil {
			logger.WithError(err).Error("Rate limit check failed, denying request")
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Success {
			c.Header("Retry-After", strconv.Itoa(result.RetryAfterSeconds(time.Now())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
