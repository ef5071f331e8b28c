package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mealbridge/backend/internal/fitbit"
	"github.com/mealbridge/backend/internal/models"
	"github.com/mealbridge/backend/internal/store"
)

// FoodInput is a food registration request after transport-level binding.
type FoodInput struct {
	CanonicalName string
	DisplayName   string
	FitbitFoodID  int64
	DefaultUnitID int64
	DefaultAmount float64
	Calories      float64
	ProteinG      *float64
	CarbsG        *float64
	FatG          *float64
}

// FoodService maintains the canonical-name food registry. Create also
// registers the food upstream; Register trusts a caller-supplied Fitbit
// food id.
type FoodService struct {
	store  store.Store
	client UpstreamClient
}

// NewFoodService creates the food registry service.
func NewFoodService(st store.Store, client UpstreamClient) *FoodService {
	return &FoodService{store: st, client: client}
}

// Lookup returns the food registered under the given name, after
// normalization. store.ErrNotFound when absent.
func (s *FoodService) Lookup(ctx context.Context, name string) (*models.Food, error) {
	return s.store.GetFood(ctx, NormalizeCanonicalName(name))
}

// List returns all registered foods.
func (s *FoodService) List(ctx context.Context) ([]models.Food, error) {
	return s.store.ListFoods(ctx)
}

// Create registers a new private food upstream, then records the mapping
// locally. Without overwrite, an existing canonical name is rejected before
// the upstream call is made.
func (s *FoodService) Create(ctx context.Context, in FoodInput, overwrite bool) (*models.Food, error) {
	canonical, err := s.canonical(in.CanonicalName)
	if err != nil {
		return nil, err
	}

	// Check the registry first so a certain conflict never creates an
	// orphaned upstream food.
	if _, err := s.store.GetFood(ctx, canonical); err == nil && !overwrite {
		return nil, conflictFor(canonical)
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	foodID, err := s.client.CreateFood(ctx, fitbit.CreateFoodRequest{
		Name:          in.DisplayName,
		DefaultUnitID: in.DefaultUnitID,
		DefaultAmount: in.DefaultAmount,
		Calories:      in.Calories,
		ProteinG:      in.ProteinG,
		CarbsG:        in.CarbsG,
		FatG:          in.FatG,
	})
	if err != nil {
		return nil, err
	}

	in.FitbitFoodID = foodID
	return s.save(ctx, canonical, in, overwrite)
}

// Register records a mapping for a food the caller already created
// upstream. No upstream call is made.
func (s *FoodService) Register(ctx context.Context, in FoodInput, overwrite bool) (*models.Food, error) {
	canonical, err := s.canonical(in.CanonicalName)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, canonical, in, overwrite)
}

func (s *FoodService) save(ctx context.Context, canonical string, in FoodInput, overwrite bool) (*models.Food, error) {
	food := models.Food{
		CanonicalName: canonical,
		DisplayName:   in.DisplayName,
		FitbitFoodID:  in.FitbitFoodID,
		DefaultUnitID: in.DefaultUnitID,
		DefaultAmount: in.DefaultAmount,
		Calories:      in.Calories,
		ProteinG:      in.ProteinG,
		CarbsG:        in.CarbsG,
		FatG:          in.FatG,
	}
	if _, err := s.store.SaveFood(ctx, food, overwrite); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, conflictFor(canonical)
		}
		return nil, err
	}
	return &food, nil
}

func (s *FoodService) canonical(name string) (string, error) {
	canonical := NormalizeCanonicalName(name)
	if canonical == "" {
		return "", &ValidationError{Message: "canonicalName must not be empty"}
	}
	return canonical, nil
}

func conflictFor(canonical string) error {
	return fmt.Errorf("%w: food %q already registered, use ?overwrite=true to replace it", store.ErrConflict, canonical)
}
