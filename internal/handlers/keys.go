package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opencurio/keygate/internal/services"
	"github.com/opencurio/keygate/pkg/models"
)

// KeyManager is the slice of the key service the handlers depend on.
type KeyManager interface {
	Create(ctx context.Context, input services.CreateKeyInput) (*services.CreatedKey, error)
	List(ctx context.Context) ([]models.APIKey, error)
	Get(ctx context.Context, id string) (*models.APIKey, error)
	Revoke(ctx context.Context, id string) (bool, error)
	FindByName(ctx context.Context, name string) ([]services.KeyRef, error)
	Codec() *services.KeyCodec
}

// QuotaLedger is the slice of the quota service the handlers depend on.
type QuotaLedger interface {
	CanCreateKey(ctx context.Context, userID string) (*models.QuotaDecision, error)
	IncrementUsage(ctx context.Context, userID string) error
	SetTier(ctx context.Context, userID string, tier models.Tier) error
	Info(ctx context.Context, userID string) (*models.SubscriptionInfo, error)
}

type KeysHandler struct {
	keys      KeyManager
	quota     QuotaLedger
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewKeysHandler(keys KeyManager, quota QuotaLedger, logger *logrus.Logger) *KeysHandler {
	return &KeysHandler{
		keys:      keys,
		quota:     quota,
		validator: validator.New(),
		logger:    logger,
	}
}

// Create issues a new key for the authenticated user, subject to the daily
// quota. The response is the only place the plaintext secret ever appears.
func (h *KeysHandler) Create(c *gin.Context) {
	userID := c.GetString("user_id")

	var request models.CreateKeyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		h.logger.WithError(err).Warn("Key creation validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decision, err := h.quota.CanCreateKey(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check creation quota")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if !decision.Allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Daily limit reached (%d keys per day for %s tier)",
				decision.Limit, decision.Tier.DisplayName()),
			"current": decision.Current,
			"limit":   decision.Limit,
			"tier":    decision.Tier,
		})
		return
	}

	created, err := h.keys.Create(c.Request.Context(), services.CreateKeyInput{
		Name:     request.Name,
		Period:   request.Period,
		Origin:   request.Origin,
		Value:    request.Value,
		ImageURL: request.ImageURL,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to create key")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := h.quota.IncrementUsage(c.Request.Context(), userID); err != nil {
		// The key already exists; losing one counter tick is better than
		// surfacing a failure for a key the caller now holds.
		h.logger.WithError(err).WithField("user_id", userID).
			Error("Failed to increment quota usage")
	}

	c.JSON(http.StatusCreated, models.CreateKeyResponse{
		ID:       created.Record.ID,
		Key:      created.Plaintext,
		Last4:    created.Record.Last4,
		Name:     created.Record.Name,
		Period:   created.Record.Period,
		Origin:   created.Record.Origin,
		Value:    created.Record.Value,
		ImageURL: created.Record.ImageURL,
	})
}

// List returns all keys newest-first, or a single key when keyId is given.
// Secrets and hashes never appear; keys render as "<prefix>...<last4>".
func (h *KeysHandler) List(c *gin.Context) {
	if keyID := c.Query("keyId"); keyID != "" {
		h.getOne(c, keyID)
		return
	}

	keys, err := h.keys.List(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list keys")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	items := make([]models.KeyListItem, 0, len(keys))
	for _, k := range keys {
		items = append(items, h.listItem(k))
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *KeysHandler) getOne(c *gin.Context, keyID string) {
	key, err := h.keys.Get(c.Request.Context(), keyID)
	if errors.Is(err, services.ErrKeyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load key")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, h.listItem(*key))
}

func (h *KeysHandler) listItem(k models.APIKey) models.KeyListItem {
	return models.KeyListItem{
		ID:        k.ID,
		Name:      k.Name,
		Period:    k.Period,
		Origin:    k.Origin,
		Value:     k.Value,
		ImageURL:  k.ImageURL,
		Masked:    h.keys.Codec().Mask(k.Last4),
		CreatedAt: k.CreatedAt,
		Revoked:   k.Revoked,
	}
}

// Revoke soft-deletes a key. Revoking twice still succeeds.
func (h *KeysHandler) Revoke(c *gin.Context) {
	keyID := c.Query("keyId")
	if _, err := uuid.Parse(keyID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyId must be a valid UUID"})
		return
	}

	ok, err := h.keys.Revoke(c.Request.Context(), keyID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to revoke key")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
