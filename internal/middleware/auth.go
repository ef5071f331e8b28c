package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth creates a middleware that validates the X-API-Key header
// against the configured pre-shared key. The comparison is constant-time;
// mismatch or absence rejects the request before any handler logic runs.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-API-Key")
		if provided == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "missing X-API-Key header"})
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": "invalid API key"})
			c.Abort()
			return
		}
		c.Next()
	}
}
