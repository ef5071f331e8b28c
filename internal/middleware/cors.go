package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS middleware to handle cross-origin requests. The API is called by
// non-browser agents, so origins are left open and only the headers the
// bridge actually reads are allowed.
func CORS() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowHeaders = append(cfg.AllowHeaders, "X-API-Key", "Idempotency-Key")
	return cors.New(cfg)
}
