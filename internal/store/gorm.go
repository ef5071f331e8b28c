package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mealbridge/backend/internal/models"
)

// GormStore implements Store on top of a GORM connection. The same code
// serves both the embedded sqlite deployment and the postgres deployment;
// the driver is chosen when the *gorm.DB is opened.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by the given database connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetToken(ctx context.Context) (*models.Token, error) {
	var token models.Token
	err := s.db.WithContext(ctx).First(&token, "id = ?", models.TokenID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	return &token, nil
}

func (s *GormStore) ReplaceToken(ctx context.Context, token models.Token) error {
	token.ID = models.TokenID
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&token).Error
	if err != nil {
		return fmt.Errorf("replace token: %w", err)
	}
	return nil
}

func (s *GormStore) GetFood(ctx context.Context, canonicalName string) (*models.Food, error) {
	var food models.Food
	err := s.db.WithContext(ctx).First(&food, "canonical_name = ?", canonicalName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get food %q: %w", canonicalName, err)
	}
	return &food, nil
}

func (s *GormStore) ListFoods(ctx context.Context) ([]models.Food, error) {
	var foods []models.Food
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&foods).Error; err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	return foods, nil
}

func (s *GormStore) SaveFood(ctx context.Context, food models.Food, overwrite bool) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Food
		err := tx.First(&existing, "canonical_name = ?", food.CanonicalName).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			food.ID = uuid.New()
			created = true
			return tx.Create(&food).Error
		case err != nil:
			return err
		case !overwrite:
			return ErrConflict
		default:
			// Full replacement, keeping the original ID and creation time.
			food.ID = existing.ID
			food.CreatedAt = existing.CreatedAt
			return tx.Save(&food).Error
		}
	})
	if errors.Is(err, ErrConflict) {
		return false, ErrConflict
	}
	if err != nil {
		return false, fmt.Errorf("save food %q: %w", food.CanonicalName, err)
	}
	return created, nil
}

func (s *GormStore) ReserveIdempotencyKey(ctx context.Context, key, requestHash string) (IdempotencyResult, error) {
	record := models.IdempotencyKey{
		Key:         key,
		RequestHash: requestHash,
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
	if res.Error != nil {
		return IdempotencyResult{}, fmt.Errorf("reserve idempotency key: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return IdempotencyResult{Outcome: IdempotencyFresh}, nil
	}

	var existing models.IdempotencyKey
	if err := s.db.WithContext(ctx).First(&existing, "key = ?", key).Error; err != nil {
		return IdempotencyResult{}, fmt.Errorf("load idempotency key: %w", err)
	}
	return resolveExisting(existing, requestHash), nil
}

func (s *GormStore) CommitIdempotencyKey(ctx context.Context, key, responseJSON string) error {
	err := s.db.WithContext(ctx).
		Model(&models.IdempotencyKey{}).
		Where("key = ?", key).
		Update("response_json", responseJSON).Error
	if err != nil {
		return fmt.Errorf("commit idempotency key: %w", err)
	}
	return nil
}

func (s *GormStore) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Delete(&models.IdempotencyKey{}, "key = ?", key).Error
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func (s *GormStore) AppendMealLog(ctx context.Context, entry models.MealLog) error {
	entry.ID = uuid.New()
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("append meal log: %w", err)
	}
	return nil
}

// resolveExisting classifies an already-present idempotency row against the
// incoming request hash. Shared by both backends.
func resolveExisting(existing models.IdempotencyKey, requestHash string) IdempotencyResult {
	if existing.RequestHash != requestHash {
		return IdempotencyResult{Outcome: IdempotencyConflict}
	}
	if !existing.Completed() {
		return IdempotencyResult{Outcome: IdempotencyInFlight}
	}
	return IdempotencyResult{
		Outcome:        IdempotencyReplay,
		CachedResponse: existing.ResponseJSON,
	}
}
