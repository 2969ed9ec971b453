package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DemoHandler serves the key-protected demo endpoints. Authentication and
// rate limiting happen in middleware; by the time these run, key_id is in
// the context and the X-RateLimit headers are already set.
type DemoHandler struct {
	keys   KeyManager
	logger *logrus.Logger
}

func NewDemoHandler(keys KeyManager, logger *logrus.Logger) *DemoHandler {
	return &DemoHandler{
		keys:   keys,
		logger: logger,
	}
}

func (h *DemoHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "Hello GET",
		"keyId":   c.GetString("key_id"),
	})
}

func (h *DemoHandler) EchoGet(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "Hello GET",
		"keyId":   c.GetString("key_id"),
	})
}

type echoRequest struct {
	PostBody string `json:"post_body"`
}

// EchoPost echoes back the key records whose name matches the posted body.
func (h *DemoHandler) EchoPost(c *gin.Context) {
	var request echoRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	received, err := h.keys.FindByName(c.Request.Context(), request.PostBody)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up keys by name")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"message":  "Hello POST",
		"received": received,
		"keyId":    c.GetString("key_id"),
	})
}
