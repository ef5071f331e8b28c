package router

import (
	"github.com/gin-gonic/gin"

	"github.com/mealbridge/backend/internal/api"
	"github.com/mealbridge/backend/internal/middleware"
)

// Handlers bundles everything SetupRouter wires up.
type Handlers struct {
	Auth  *api.AuthHandler
	Foods *api.FoodHandler
	Meals *api.MealHandler
	Units *api.UnitHandler
	Docs  *api.DocsHandler
}

// SetupRouter configures the application routes. Health, the OAuth
// bootstrap and the documentation endpoints are public; everything else
// sits behind the API-key gate. The rate limiter, when present, applies to
// meal logging only.
func SetupRouter(apiKey string, handlers Handlers, mealLimiter *middleware.RateLimiter) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.CORS())

	// Public routes
	router.GET("/health", api.HealthCheck)
	handlers.Auth.RegisterRoutes(router)
	handlers.Docs.RegisterRoutes(router)

	// Protected routes
	protected := router.Group("")
	protected.Use(middleware.APIKeyAuth(apiKey))
	{
		handlers.Foods.RegisterRoutes(protected)
		handlers.Units.RegisterRoutes(protected)

		meals := protected.Group("")
		if mealLimiter != nil {
			meals.Use(mealLimiter.RateLimitMiddleware())
		}
		handlers.Meals.RegisterRoutes(meals)
	}

	return router
}
