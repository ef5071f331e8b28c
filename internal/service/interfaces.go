package service

import (
	"context"
	"encoding/json"

	"github.com/mealbridge/backend/internal/fitbit"
)

// OAuthClient is the slice of the Fitbit client used by the token
// lifecycle. Implemented by *fitbit.OAuth.
type OAuthClient interface {
	AuthorizationURL() string
	ExchangeCode(ctx context.Context, code string) (*fitbit.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*fitbit.TokenResponse, error)
}

// UpstreamClient is the slice of the Fitbit client used by the food and
// meal workflows. Implemented by *fitbit.Client.
type UpstreamClient interface {
	CreateFood(ctx context.Context, req fitbit.CreateFoodRequest) (int64, error)
	LogFood(ctx context.Context, req fitbit.LogFoodRequest) (*fitbit.FoodLogResult, error)
	ListUnits(ctx context.Context) (json.RawMessage, error)
}
