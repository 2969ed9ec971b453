package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/opencurio/keygate/pkg/models"
)

// KeyVerifier decides whether a presented secret authorizes a request.
type KeyVerifier interface {
	Verify(ctx context.Context, secret string) (models.Verdict, error)
}

// APIKeyAuth authenticates demo-surface requests via the x-api-key header.
// On success it stores the verified key id and tier in the request context;
// rate limiting runs as a separate, subsequent step so unauthenticated
// attempts never spend a key's budget.
func APIKeyAuth(verifier KeyVerifier, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("x-api-key")
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing api key",
			})
			return
		}

		verdict, err := verifier.Verify(c.Request.Context(), apiKey)
		if err != nil {
			logger.WithError(err).Error("Failed to verify API key")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal server error",
			})
			return
		}

		if !verdict.Valid {
			logger.WithField("reason", verdict.Reason).Warn("Invalid API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": string(verdict.Reason),
			})
			return
		}

		c.Set("key_id", verdict.KeyID)
		// Issued keys are not bound to a subscription, so the demo surface
		// meters every key in the free-tier namespace.
		c.Set("key_tier", models.TierFree)
		c.Next()
	}
}
