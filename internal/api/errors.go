package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealbridge/backend/internal/fitbit"
	"github.com/mealbridge/backend/internal/service"
	"github.com/mealbridge/backend/internal/store"
)

// respondError maps service-layer errors onto the HTTP error taxonomy:
// 400 validation, 409 conflict, 401 unauthenticated, 502 upstream, 500
// everything else. Auth failures are checked before the upstream variant
// because a failed refresh wraps the upstream response.
func respondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var upstreamErr *fitbit.UpstreamError

	switch {
	case errors.As(err, &validationErr):
		body := gin.H{"error": "VALIDATION_ERROR", "message": validationErr.Message}
		if len(validationErr.Missing) > 0 {
			body["missing"] = validationErr.Missing
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, service.ErrIdempotencyConflict),
		errors.Is(err, service.ErrIdempotencyInFlight),
		errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "CONFLICT", "message": err.Error()})
	case errors.Is(err, service.ErrNoCredentials), errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": err.Error()})
	case errors.As(err, &upstreamErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "UPSTREAM_ERROR",
			"status": upstreamErr.Status,
			"body":   upstreamErr.Body,
		})
	default:
		log.Printf("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL_ERROR"})
	}
}
