package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealbridge/backend/internal/service"
)

// AuthHandler serves the OAuth bootstrap endpoints. Both are public: the
// consent flow happens before any credential exists.
type AuthHandler struct {
	tokens *service.TokenService
}

// NewAuthHandler creates the OAuth handler.
func NewAuthHandler(tokens *service.TokenService) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

// RegisterRoutes registers the auth routes on the given group.
func (h *AuthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/auth/start", h.Start)
	r.GET("/auth/callback", h.Callback)
}

// Start redirects the operator to the Fitbit consent screen.
func (h *AuthHandler) Start(c *gin.Context) {
	c.Redirect(http.StatusFound, h.tokens.AuthorizationURL())
}

// Callback completes the authorization-code exchange and persists the
// resulting token pair.
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": "missing code parameter"})
		return
	}

	if _, err := h.tokens.ExchangeCode(c.Request.Context(), code); err != nil {
		log.Printf("Token exchange failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "TOKEN_EXCHANGE_FAILED", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Tokens saved successfully"})
}
