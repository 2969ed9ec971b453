package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencurio/keygate/internal/services"
)

func userAuthTestRouter(validator TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	router := gin.New()
	router.GET("/keys", UserAuth(validator, logger), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	return router
}

func TestUserAuthValidToken(t *testing.T) {
	svc := services.NewUserAuthService("test-secret")
	token, err := svc.GenerateToken("user-42", time.Hour)
	require.NoError(t, err)

	router := userAuthTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/keys", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-42")
}

func TestUserAuthMissingHeader(t *testing.T) {
	router := userAuthTestRouter(services.NewUserAuthService("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/keys", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserAuthMalformedHeader(t *testing.T) {
	router := userAuthTestRouter(services.NewUserAuthService("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/keys", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserAuthBadSignature(t *testing.T) {
	other := services.NewUserAuthService("other-secret")
	token, err := other.GenerateToken("user-42", time.Hour)
	require.NoError(t, err)

	router := userAuthTestRouter(services.NewUserAuthService("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/keys", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
