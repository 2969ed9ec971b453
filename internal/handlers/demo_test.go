package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencurio/keygate/internal/services"
)

func setupDemoRouter(keys *mockKeyManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	if keys.codec == nil {
		keys.codec = services.NewKeyCodec("sk_live_", 24)
	}

	handler := NewDemoHandler(keys, logger)

	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("key_id", "id-1") })
	router.GET("/ping", handler.Ping)
	router.GET("/echo", handler.EchoGet)
	router.POST("/echo", handler.EchoPost)
	return router
}

func TestPing(t *testing.T) {
	router := setupDemoRouter(&mockKeyManager{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "Hello GET", body["message"])
	assert.Equal(t, "id-1", body["keyId"])
}

func TestEchoGet(t *testing.T) {
	router := setupDemoRouter(&mockKeyManager{})

	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hello GET")
}

func TestEchoPost(t *testing.T) {
	keys := &mockKeyManager{
		refs: []services.KeyRef{{ID: "id-1", Name: "Vase"}},
	}
	router := setupDemoRouter(keys)

	body, err := json.Marshal(map[string]string{"post_body": "Vase"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Hello POST", resp["message"])
	assert.Equal(t, "id-1", resp["keyId"])

	received, ok := resp["received"].([]interface{})
	require.True(t, ok)
	require.Len(t, received, 1)
}

func TestEchoPostInvalidJSON(t *testing.T) {
	router := setupDemoRouter(&mockKeyManager{})

	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("{oops"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid JSON body")
}
