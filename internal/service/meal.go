package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mealbridge/backend/internal/fitbit"
	"github.com/mealbridge/backend/internal/models"
	"github.com/mealbridge/backend/internal/store"
)

// MealItem is one line of a meal-log request. Exactly one of CanonicalName
// and FoodID must be set.
type MealItem struct {
	CanonicalName string  `json:"canonicalName,omitempty"`
	FoodID        int64   `json:"foodId,omitempty"`
	Amount        float64 `json:"amount"`
	UnitID        int64   `json:"unitId"`
	Note          string  `json:"note,omitempty"`
}

// LogMealRequest is a full meal-log request after transport binding.
type LogMealRequest struct {
	Date       string     `json:"date"`
	MealTypeID int64      `json:"mealTypeId"`
	Items      []MealItem `json:"items"`
}

// LoggedItem is the per-item result of a successful execution, positionally
// correlated with the request items.
type LoggedItem struct {
	FoodID int64   `json:"foodId"`
	Amount float64 `json:"amount"`
	UnitID int64   `json:"unitId"`
	LogID  int64   `json:"logId"`
}

// LogMealResponse is the success body for a meal-log request.
type LogMealResponse struct {
	Success bool         `json:"success"`
	Logged  []LoggedItem `json:"logged"`
}

// LogMealResult carries the exact JSON body to return. Replayed marks a
// response served from the idempotency cache without re-execution.
type LogMealResult struct {
	ResponseJSON string
	Replayed     bool
}

// resolvedItem is a line item after registry resolution.
type resolvedItem struct {
	foodID   int64
	foodName string
	amount   float64
	unitID   int64
}

// MealService orchestrates meal logging: idempotency reservation, then
// all-or-nothing resolution of every line item against the food registry,
// then sequential upstream logging calls, then the audit record.
type MealService struct {
	store  store.Store
	client UpstreamClient
}

// NewMealService creates the meal logging orchestrator.
func NewMealService(st store.Store, client UpstreamClient) *MealService {
	return &MealService{store: st, client: client}
}

// LogMeal processes one meal-log request. idemKey may be empty, in which
// case no idempotency bookkeeping happens. Error values: *ValidationError
// for malformed input or unresolved names, ErrIdempotencyConflict /
// ErrIdempotencyInFlight for key misuse, *fitbit.UpstreamError for upstream
// rejections (in which case items logged before the failure stay logged
// upstream; no audit or idempotency record is kept).
func (s *MealService) LogMeal(ctx context.Context, idemKey string, req LogMealRequest) (result *LogMealResult, retErr error) {
	normalized, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	if idemKey != "" {
		hash, err := requestHash(normalized)
		if err != nil {
			return nil, err
		}
		res, err := s.store.ReserveIdempotencyKey(ctx, idemKey, hash)
		if err != nil {
			return nil, err
		}
		switch res.Outcome {
		case store.IdempotencyReplay:
			return &LogMealResult{ResponseJSON: res.CachedResponse, Replayed: true}, nil
		case store.IdempotencyConflict:
			return nil, ErrIdempotencyConflict
		case store.IdempotencyInFlight:
			return nil, ErrIdempotencyInFlight
		}
		// A failed execution must leave no idempotency record, so an
		// identical retry is treated as fresh again.
		defer func() {
			if retErr == nil {
				return
			}
			if rerr := s.store.ReleaseIdempotencyKey(ctx, idemKey); rerr != nil {
				log.Printf("Failed to release idempotency key %q: %v", idemKey, rerr)
			}
		}()
	}

	// Resolution phase: every item must resolve before any upstream call
	// is made, so a single typo cannot leave the meal half-logged.
	items := make([]resolvedItem, 0, len(normalized.Items))
	var missing []string
	for _, item := range normalized.Items {
		if item.CanonicalName != "" {
			food, err := s.store.GetFood(ctx, item.CanonicalName)
			if errors.Is(err, store.ErrNotFound) {
				missing = append(missing, item.CanonicalName)
				continue
			}
			if err != nil {
				return nil, err
			}
			items = append(items, resolvedItem{
				foodID:   food.FitbitFoodID,
				foodName: food.DisplayName,
				amount:   item.Amount,
				unitID:   item.UnitID,
			})
			continue
		}
		items = append(items, resolvedItem{
			foodID: item.FoodID,
			amount: item.Amount,
			unitID: item.UnitID,
		})
	}
	if len(missing) > 0 {
		return nil, &ValidationError{
			Message: "canonical names not found in registry",
			Missing: missing,
		}
	}

	// Execution phase: strictly in input order, one call at a time. The
	// first failure aborts the rest; there is no compensating delete for
	// entries already logged upstream.
	logged := make([]LoggedItem, 0, len(items))
	for _, item := range items {
		res, err := s.client.LogFood(ctx, fitbit.LogFoodRequest{
			FoodID:     item.foodID,
			MealTypeID: normalized.MealTypeID,
			UnitID:     item.unitID,
			Amount:     item.amount,
			Date:       normalized.Date,
			FoodName:   item.foodName,
		})
		if err != nil {
			return nil, err
		}
		logged = append(logged, LoggedItem{
			FoodID: item.foodID,
			Amount: item.amount,
			UnitID: item.unitID,
			LogID:  res.LogID,
		})
	}

	requestJSON, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("encode audit request: %w", err)
	}
	responseJSON, err := json.Marshal(LogMealResponse{Success: true, Logged: logged})
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}

	if err := s.store.AppendMealLog(ctx, models.MealLog{
		Date:         normalized.Date,
		MealTypeID:   normalized.MealTypeID,
		RequestJSON:  string(requestJSON),
		ResponseJSON: string(responseJSON),
	}); err != nil {
		return nil, err
	}

	if idemKey != "" {
		if err := s.store.CommitIdempotencyKey(ctx, idemKey, string(responseJSON)); err != nil {
			return nil, err
		}
	}

	return &LogMealResult{ResponseJSON: string(responseJSON)}, nil
}

// normalizeRequest validates the request and returns a copy with canonical
// names normalized, which is also the form that gets hashed and audited.
func normalizeRequest(req LogMealRequest) (LogMealRequest, error) {
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return LogMealRequest{}, &ValidationError{Message: "date must be in YYYY-MM-DD format"}
	}
	if len(req.Items) == 0 {
		return LogMealRequest{}, &ValidationError{Message: "items must not be empty"}
	}

	normalized := req
	normalized.Items = make([]MealItem, len(req.Items))
	for i, item := range req.Items {
		item.CanonicalName = NormalizeCanonicalName(item.CanonicalName)
		if (item.CanonicalName == "") == (item.FoodID == 0) {
			return LogMealRequest{}, &ValidationError{
				Message: fmt.Sprintf("items[%d]: exactly one of canonicalName or foodId is required", i),
			}
		}
		if item.Amount <= 0 {
			return LogMealRequest{}, &ValidationError{
				Message: fmt.Sprintf("items[%d]: amount must be positive", i),
			}
		}
		if item.UnitID <= 0 {
			return LogMealRequest{}, &ValidationError{
				Message: fmt.Sprintf("items[%d]: unitId is required", i),
			}
		}
		normalized.Items[i] = item
	}
	return normalized, nil
}

// requestHash fingerprints the normalized request body for idempotency
// comparison.
func requestHash(req LogMealRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request for hashing: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
