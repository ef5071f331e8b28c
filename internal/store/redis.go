package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mealbridge/backend/internal/models"
)

const (
	tokenKey       = "mealbridge:token"
	foodKeyPrefix  = "mealbridge:food:"
	foodIndexKey   = "mealbridge:foods"
	idemKeyPrefix  = "mealbridge:idem:"
	mealLogListKey = "mealbridge:meal_logs"
)

// RedisStore implements Store against a remote Redis instance, storing each
// record as a JSON document. It is the deployment option for environments
// without a local disk.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) GetToken(ctx context.Context) (*models.Token, error) {
	data, err := s.client.Get(ctx, tokenKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	var token models.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &token, nil
}

func (s *RedisStore) ReplaceToken(ctx context.Context, token models.Token) error {
	token.ID = models.TokenID
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := s.client.Set(ctx, tokenKey, data, 0).Err(); err != nil {
		return fmt.Errorf("replace token: %w", err)
	}
	return nil
}

func (s *RedisStore) GetFood(ctx context.Context, canonicalName string) (*models.Food, error) {
	data, err := s.client.Get(ctx, foodKeyPrefix+canonicalName).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get food %q: %w", canonicalName, err)
	}
	var food models.Food
	if err := json.Unmarshal(data, &food); err != nil {
		return nil, fmt.Errorf("decode food %q: %w", canonicalName, err)
	}
	return &food, nil
}

func (s *RedisStore) ListFoods(ctx context.Context) ([]models.Food, error) {
	names, err := s.client.SMembers(ctx, foodIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	foods := make([]models.Food, 0, len(names))
	for _, name := range names {
		food, err := s.GetFood(ctx, name)
		if errors.Is(err, ErrNotFound) {
			// Index entry without a document; skip rather than fail the
			// whole listing.
			continue
		}
		if err != nil {
			return nil, err
		}
		foods = append(foods, *food)
	}
	return foods, nil
}

func (s *RedisStore) SaveFood(ctx context.Context, food models.Food, overwrite bool) (bool, error) {
	key := foodKeyPrefix + food.CanonicalName

	existing, err := s.GetFood(ctx, food.CanonicalName)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}
	created := existing == nil
	if !created {
		if !overwrite {
			return false, ErrConflict
		}
		food.ID = existing.ID
		food.CreatedAt = existing.CreatedAt
	} else {
		food.ID = uuid.New()
		food.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(food)
	if err != nil {
		return false, fmt.Errorf("encode food %q: %w", food.CanonicalName, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, foodIndexKey, food.CanonicalName)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("save food %q: %w", food.CanonicalName, err)
	}
	return created, nil
}

func (s *RedisStore) ReserveIdempotencyKey(ctx context.Context, key, requestHash string) (IdempotencyResult, error) {
	record := models.IdempotencyKey{
		Key:         key,
		RequestHash: requestHash,
		CreatedAt:   time.Now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return IdempotencyResult{}, fmt.Errorf("encode idempotency key: %w", err)
	}

	// SETNX is the atomic insert-if-absent primitive: exactly one of two
	// racing requests claims the key.
	claimed, err := s.client.SetNX(ctx, idemKeyPrefix+key, data, 0).Result()
	if err != nil {
		return IdempotencyResult{}, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if claimed {
		return IdempotencyResult{Outcome: IdempotencyFresh}, nil
	}

	raw, err := s.client.Get(ctx, idemKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Released between our SETNX and GET; treat as in-flight so the
		// caller retries rather than double-executing.
		return IdempotencyResult{Outcome: IdempotencyInFlight}, nil
	}
	if err != nil {
		return IdempotencyResult{}, fmt.Errorf("load idempotency key: %w", err)
	}
	var existing models.IdempotencyKey
	if err := json.Unmarshal(raw, &existing); err != nil {
		return IdempotencyResult{}, fmt.Errorf("decode idempotency key: %w", err)
	}
	return resolveExisting(existing, requestHash), nil
}

func (s *RedisStore) CommitIdempotencyKey(ctx context.Context, key, responseJSON string) error {
	raw, err := s.client.Get(ctx, idemKeyPrefix+key).Bytes()
	if err != nil {
		return fmt.Errorf("commit idempotency key: %w", err)
	}
	var record models.IdempotencyKey
	if err := json.Unmarshal(raw, &record); err != nil {
		return fmt.Errorf("decode idempotency key: %w", err)
	}
	record.ResponseJSON = responseJSON
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode idempotency key: %w", err)
	}
	if err := s.client.Set(ctx, idemKeyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("commit idempotency key: %w", err)
	}
	return nil
}

func (s *RedisStore) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idemKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func (s *RedisStore) AppendMealLog(ctx context.Context, entry models.MealLog) error {
	entry.ID = uuid.New()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode meal log: %w", err)
	}
	if err := s.client.RPush(ctx, mealLogListKey, data).Err(); err != nil {
		return fmt.Errorf("append meal log: %w", err)
	}
	return nil
}
