package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mealbridge/backend/internal/fitbit"
	"github.com/mealbridge/backend/internal/models"
	"github.com/mealbridge/backend/internal/store"
)

// setupStore opens an isolated in-memory database and returns both the store
// and the raw handle, so tests can count audit rows directly.
func setupStore(t *testing.T) (*store.GormStore, *gorm.DB) {
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Token{},
		&models.Food{},
		&models.IdempotencyKey{},
		&models.MealLog{},
	))
	return store.NewGormStore(db), db
}

// fakeOAuth scripts the token endpoint responses.
type fakeOAuth struct {
	refreshCalls  int
	exchangeCalls int
	response      *fitbit.TokenResponse
	err           error
	lastRefresh   string
}

func (f *fakeOAuth) AuthorizationURL() string { return "https://auth.example/consent" }

func (f *fakeOAuth) ExchangeCode(ctx context.Context, code string) (*fitbit.TokenResponse, error) {
	f.exchangeCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeOAuth) Refresh(ctx context.Context, refreshToken string) (*fitbit.TokenResponse, error) {
	f.refreshCalls++
	f.lastRefresh = refreshToken
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

// fakeUpstream records every Fitbit call and can be scripted to fail at a
// given LogFood call (1-based).
type fakeUpstream struct {
	createCalls   int
	createErr     error
	createdFoodID int64

	logCalls  []fitbit.LogFoodRequest
	failAt    int
	logErr    error
	nextLogID int64
}

func (f *fakeUpstream) CreateFood(ctx context.Context, req fitbit.CreateFoodRequest) (int64, error) {
	f.createCalls++
	if f.createErr != nil {
		return 0, f.createErr
	}
	return f.createdFoodID, nil
}

func (f *fakeUpstream) LogFood(ctx context.Context, req fitbit.LogFoodRequest) (*fitbit.FoodLogResult, error) {
	f.logCalls = append(f.logCalls, req)
	if f.failAt > 0 && len(f.logCalls) == f.failAt {
		return nil, f.logErr
	}
	f.nextLogID++
	return &fitbit.FoodLogResult{LogID: f.nextLogID}, nil
}

func (f *fakeUpstream) ListUnits(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

func registerFood(t *testing.T, st store.Store, name string, fitbitID int64) {
	t.Helper()
	_, err := st.SaveFood(context.Background(), models.Food{
		CanonicalName: name,
		DisplayName:   name,
		FitbitFoodID:  fitbitID,
		DefaultUnitID: 147,
		DefaultAmount: 1,
		Calories:      100,
	}, false)
	require.NoError(t, err)
}
