package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mealbridge/backend/internal/api"
	"github.com/mealbridge/backend/internal/fitbit"
	"github.com/mealbridge/backend/internal/models"
	"github.com/mealbridge/backend/internal/router"
	"github.com/mealbridge/backend/internal/service"
	"github.com/mealbridge/backend/internal/store"
)

const testAPIKey = "test-api-key"

// fakeOAuth stands in for Fitbit's token endpoints.
type fakeOAuth struct {
	response *fitbit.TokenResponse
	err      error
}

func (f *fakeOAuth) AuthorizationURL() string {
	return "https://www.fitbit.com/oauth2/authorize?client_id=test"
}

func (f *fakeOAuth) ExchangeCode(ctx context.Context, code string) (*fitbit.TokenResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeOAuth) Refresh(ctx context.Context, refreshToken string) (*fitbit.TokenResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

// fakeUpstream stands in for Fitbit's REST API.
type fakeUpstream struct {
	createdFoodID int64
	createErr     error
	logErr        error
	logCalls      int
	units         json.RawMessage
	unitsErr      error
}

func (f *fakeUpstream) CreateFood(ctx context.Context, req fitbit.CreateFoodRequest) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	return f.createdFoodID, nil
}

func (f *fakeUpstream) LogFood(ctx context.Context, req fitbit.LogFoodRequest) (*fitbit.FoodLogResult, error) {
	f.logCalls++
	if f.logErr != nil {
		return nil, f.logErr
	}
	return &fitbit.FoodLogResult{LogID: int64(1000 + f.logCalls)}, nil
}

func (f *fakeUpstream) ListUnits(ctx context.Context) (json.RawMessage, error) {
	if f.unitsErr != nil {
		return nil, f.unitsErr
	}
	return f.units, nil
}

// testApp is the full HTTP surface wired against an in-memory database and
// scriptable Fitbit fakes.
type testApp struct {
	engine   *gin.Engine
	store    *store.GormStore
	oauth    *fakeOAuth
	upstream *fakeUpstream
}

func setupApp(t *testing.T) *testApp {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", t.Name())
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

	st := store.NewGormStore(db)
	oauth := &fakeOAuth{}
	upstream := &fakeUpstream{units: json.RawMessage(`[]`)}

	handlers := router.Handlers{
		Auth:  api.NewAuthHandler(service.NewTokenService(st, oauth)),
		Foods: api.NewFoodHandler(service.NewFoodService(st, upstream)),
		Meals: api.NewMealHandler(service.NewMealService(st, upstream)),
		Units: api.NewUnitHandler(upstream),
		Docs:  api.NewDocsHandler("http://localhost:3000"),
	}

	return &testApp{
		engine:   router.SetupRouter(testAPIKey, handlers, nil),
		store:    st,
		oauth:    oauth,
		upstream: upstream,
	}
}

// do performs an authenticated request with an optional JSON body.
func (a *testApp) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", testAPIKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testApp) registerFood(t *testing.T, name string, fitbitID int64) {
	t.Helper()
	_, err := a.store.SaveFood(context.Background(), models.Food{
		CanonicalName: name,
		DisplayName:   name,
		FitbitFoodID:  fitbitID,
		DefaultUnitID: 147,
		DefaultAmount: 1,
		Calories:      100,
	}, false)
	require.NoError(t, err)
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
