// Package store defines the persistence contract shared by the embedded
// database backend and the Redis backend. The services in internal/service
// only ever see this interface, so the deployment can switch backends
// without touching any workflow logic.
package store

import (
	"context"
	"errors"

	"github.com/mealbridge/backend/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write collides with an existing
	// record and overwriting was not requested.
	ErrConflict = errors.New("record already exists")
)

// IdempotencyOutcome is the result of attempting to reserve an idempotency
// key for execution.
type IdempotencyOutcome int

const (
	// IdempotencyFresh means the key was unused; the caller now holds the
	// reservation and must either commit or release it.
	IdempotencyFresh IdempotencyOutcome = iota
	// IdempotencyReplay means the key was already completed with an
	// identical request; the cached response must be returned as-is.
	IdempotencyReplay
	// IdempotencyConflict means the key was already used with a different
	// request body.
	IdempotencyConflict
	// IdempotencyInFlight means another request holding the same key has
	// reserved it but not yet completed.
	IdempotencyInFlight
)

// IdempotencyResult carries the reservation outcome, plus the previously
// cached response when the outcome is IdempotencyReplay.
type IdempotencyResult struct {
	Outcome        IdempotencyOutcome
	CachedResponse string
}

// Store is the durable state required by the bridge: the singleton token
// row, the food registry, the idempotency ledger and the append-only meal
// audit log.
type Store interface {
	// GetToken returns the singleton token row, or ErrNotFound when the
	// OAuth flow has never completed.
	GetToken(ctx context.Context) (*models.Token, error)
	// ReplaceToken replaces the singleton token row wholesale.
	ReplaceToken(ctx context.Context, token models.Token) error

	// GetFood looks up a food by its normalized canonical name.
	GetFood(ctx context.Context, canonicalName string) (*models.Food, error)
	// ListFoods returns all registered foods, newest first.
	ListFoods(ctx context.Context) ([]models.Food, error)
	// SaveFood inserts a food, or fully replaces an existing record for
	// the same canonical name when overwrite is set. Without overwrite a
	// collision returns ErrConflict. The returned flag is true when a new
	// record was created.
	SaveFood(ctx context.Context, food models.Food, overwrite bool) (created bool, err error)

	// ReserveIdempotencyKey atomically claims the key for this request.
	// The reservation must be committed after a successful execution or
	// released after a failed one.
	ReserveIdempotencyKey(ctx context.Context, key, requestHash string) (IdempotencyResult, error)
	// CommitIdempotencyKey completes a reservation with the response that
	// later replays of the same request will receive.
	CommitIdempotencyKey(ctx context.Context, key, responseJSON string) error
	// ReleaseIdempotencyKey drops a reservation so that a retry of the
	// same request is treated as fresh.
	ReleaseIdempotencyKey(ctx context.Context, key string) error

	// AppendMealLog writes one audit entry. Entries are never updated or
	// read back by the bridge.
	AppendMealLog(ctx context.Context, entry models.MealLog) error
}
