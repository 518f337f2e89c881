package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smilespace/clinic-api/config"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterFailsOpenWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.SetRedisClientForTesting(nil)

	r := gin.New()
	r.POST("/appointment", RateLimiter(RateLimitConfig{Limit: 1}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Without Redis every request is allowed, even past the limit.
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/appointment", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestResetRateLimitWithoutRedis(t *testing.T) {
	config.SetRedisClientForTesting(nil)
	assert.Error(t, ResetRateLimit("127.0.0.1", "/appointment"))
}
