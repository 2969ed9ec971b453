package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/opencurio/keygate/pkg/models"
)

type SubscriptionHandler struct {
	quota  QuotaLedger
	logger *logrus.Logger
}

func NewSubscriptionHandler(quota QuotaLedger, logger *logrus.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		quota:  quota,
		logger: logger,
	}
}

func (h *SubscriptionHandler) Get(c *gin.Context) {
	info, err := h.quota.Info(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, info)
}

// Update changes the user's tier. Tier changes here are a flag write, not a
// payment flow.
func (h *SubscriptionHandler) Update(c *gin.Context) {
	userID := c.GetString("user_id")

	var request models.UpdateTierRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	tier, err := models.ParseTier(request.Tier)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.quota.SetTier(c.Request.Context(), userID, tier); err != nil {
		h.logger.WithError(err).Error("Failed to update tier")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	info, err := h.quota.Info(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load subscription after tier update")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, info)
}
