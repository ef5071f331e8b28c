package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealbridge/backend/config"
	"github.com/mealbridge/backend/internal/api"
	"github.com/mealbridge/backend/internal/database"
	"github.com/mealbridge/backend/internal/fitbit"
	"github.com/mealbridge/backend/internal/middleware"
	"github.com/mealbridge/backend/internal/router"
	"github.com/mealbridge/backend/internal/service"
	"github.com/mealbridge/backend/internal/store"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New builds the full service: storage backend, Fitbit clients, services,
// handlers and routes, per the given configuration.
func New(cfg *config.Config) (*Server, error) {
	st, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	oauth := fitbit.NewOAuth(fitbit.OAuthConfig{
		ClientID:     cfg.FitbitClientID,
		ClientSecret: cfg.FitbitClientSecret,
		RedirectURI:  cfg.BaseURL + "/auth/callback",
		APIBase:      cfg.FitbitAPIBase,
		AuthBase:     cfg.FitbitAuthBase,
	})
	tokenService := service.NewTokenService(st, oauth)
	client := fitbit.NewClient(cfg.FitbitAPIBase, nil, tokenService)

	handlers := router.Handlers{
		Auth:  api.NewAuthHandler(tokenService),
		Foods: api.NewFoodHandler(service.NewFoodService(st, client)),
		Meals: api.NewMealHandler(service.NewMealService(st, client)),
		Units: api.NewUnitHandler(client),
		Docs:  api.NewDocsHandler(cfg.BaseURL),
	}

	var mealLimiter *middleware.RateLimiter
	if cfg.MealLogRateLimit > 0 {
		redisClient, err := database.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		mealLimiter = middleware.NewMealLogRateLimiter(redisClient, cfg.MealLogRateLimit)
	}

	engine := router.SetupRouter(cfg.APIKey, handlers, mealLimiter)

	return &Server{
		router: engine,
		http: &http.Server{
			Addr:    ":" + cfg.ServerPort,
			Handler: engine,
		},
	}, nil
}

// newStore opens the configured storage backend.
func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		client, err := database.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		return store.NewRedisStore(client), nil
	default:
		db, err := database.New(cfg)
		if err != nil {
			return nil, err
		}
		return store.NewGormStore(db), nil
	}
}

// Start starts the server and blocks until it is shut down.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Router exposes the gin engine, used by tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
