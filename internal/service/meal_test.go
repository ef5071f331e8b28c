package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mealbridge/backend/internal/fitbit"
	"github.com/mealbridge/backend/internal/models"
)

func mealLogCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.MealLog{}).Count(&count).Error)
	return count
}

func idempotencyCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.IdempotencyKey{}).Count(&count).Error)
	return count
}

func TestLogMealResolvesAndLogsInOrder(t *testing.T) {
	st, db := setupStore(t)
	upstream := &fakeUpstream{}
	svc := NewMealService(st, upstream)
	ctx := context.Background()

	registerFood(t, st, "oatmeal", 101)
	registerFood(t, st, "banana", 102)

	result, err := svc.LogMeal(ctx, "", LogMealRequest{
		Date:       "2024-06-01",
		MealTypeID: 1,
		Items: []MealItem{
			{CanonicalName: "Oatmeal", Amount: 40, UnitID: 147},
			{CanonicalName: "banana", Amount: 1, UnitID: 304},
			{FoodID: 999, Amount: 2, UnitID: 304},
		},
	})
	require.NoError(t, err)
	assert.False(t, result.Replayed)

	// One upstream call per item, in input order.
	require.Len(t, upstream.logCalls, 3)
	assert.Equal(t, int64(101), upstream.logCalls[0].FoodID)
	assert.Equal(t, int64(102), upstream.logCalls[1].FoodID)
	assert.Equal(t, int64(999), upstream.logCalls[2].FoodID)
	assert.Equal(t, "2024-06-01", upstream.logCalls[0].Date)
	assert.Equal(t, "oatmeal", upstream.logCalls[0].FoodName)
	assert.Empty(t, upstream.logCalls[2].FoodName)

	var resp LogMealResponse
	require.NoError(t, json.Unmarshal([]byte(result.ResponseJSON), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Logged, 3)
	assert.Equal(t, int64(1), resp.Logged[0].LogID)
	assert.Equal(t, int64(3), resp.Logged[2].LogID)

	assert.Equal(t, int64(1), mealLogCount(t, db))
}

func TestLogMealMissingNamesRejectAll(t *testing.T) {
	st, db := setupStore(t)
	upstream := &fakeUpstream{}
	svc := NewMealService(st, upstream)

	registerFood(t, st, "oatmeal", 101)

	_, err := svc.LogMeal(context.Background(), "key-1", LogMealRequest{
		Date:       "2024-06-01",
		MealTypeID: 1,
		Items: []MealItem{
			{CanonicalName: "oatmeal", Amount: 40, UnitID: 147},
			{CanonicalName: "dragon fruit", Amount: 1, UnitID: 304},
			{CanonicalName: "star fruit", Amount: 1, UnitID: 304},
		},
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"dragon fruit", "star fruit"}, vErr.Missing)

	// One unresolved name blocks the whole meal: nothing is logged upstream
	// and nothing is recorded, including the idempotency reservation.
	assert.Empty(t, upstream.logCalls)
	assert.Equal(t, int64(0), mealLogCount(t, db))
	assert.Equal(t, int64(0), idempotencyCount(t, db))
}

func TestLogMealUpstreamFailureAborts(t *testing.T) {
	st, db := setupStore(t)
	upstream := &fakeUpstream{
		failAt: 2,
		logErr: &fitbit.UpstreamError{Status: http.StatusBadRequest, Body: "bad unit"},
	}
	svc := NewMealService(st, upstream)
	ctx := context.Background()

	registerFood(t, st, "oatmeal", 101)
	registerFood(t, st, "banana", 102)
	registerFood(t, st, "coffee", 103)

	req := LogMealRequest{
		Date:       "2024-06-01",
		MealTypeID: 1,
		Items: []MealItem{
			{CanonicalName: "oatmeal", Amount: 40, UnitID: 147},
			{CanonicalName: "banana", Amount: 1, UnitID: 304},
			{CanonicalName: "coffee", Amount: 1, UnitID: 304},
		},
	}

	_, err := svc.LogMeal(ctx, "key-1", req)
	var upstreamErr *fitbit.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)

	// The failure aborts the remaining items; the first stays logged
	// upstream, but no audit row or idempotency record survives.
	assert.Len(t, upstream.logCalls, 2)
	assert.Equal(t, int64(0), mealLogCount(t, db))
	assert.Equal(t, int64(0), idempotencyCount(t, db))

	// A retry with the same key is treated as brand new.
	upstream.failAt = 0
	result, err := svc.LogMeal(ctx, "key-1", req)
	require.NoError(t, err)
	assert.False(t, result.Replayed)
	assert.Equal(t, int64(1), mealLogCount(t, db))
}

func TestLogMealIdempotentReplay(t *testing.T) {
	st, db := setupStore(t)
	upstream := &fakeUpstream{}
	svc := NewMealService(st, upstream)
	ctx := context.Background()

	registerFood(t, st, "oatmeal", 101)

	req := LogMealRequest{
		Date:       "2024-06-01",
		MealTypeID: 1,
		Items:      []MealItem{{CanonicalName: "oatmeal", Amount: 40, UnitID: 147}},
	}

	first, err := svc.LogMeal(ctx, "key-1", req)
	require.NoError(t, err)
	require.False(t, first.Replayed)

	second, err := svc.LogMeal(ctx, "key-1", req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.ResponseJSON, second.ResponseJSON)

	// The replay performs no upstream calls and writes no second audit row.
	assert.Len(t, upstream.logCalls, 1)
	assert.Equal(t, int64(1), mealLogCount(t, db))
}

func TestLogMealReplayIgnoresNameSpelling(t *testing.T) {
	st, _ := setupStore(t)
	upstream := &fakeUpstream{}
	svc := NewMealService(st, upstream)
	ctx := context.Background()

	registerFood(t, st, "oatmeal", 101)

	first, err := svc.LogMeal(ctx, "key-1", LogMealRequest{
		Date:       "2024-06-01",
		MealTypeID: 1,
		Items:      []MealItem{{CanonicalName: "oatmeal", Amount: 40, UnitID: 147}},
	})
	require.NoError(t, err)

	// The hash covers the normalized request, so a respelled name is still
	// the same request.
	second, err := svc.LogMeal(ctx, "key-1", LogMealRequest{
		Date:       "2024-06-01",
		MealTypeID: 1,
		Items:      []MealItem{{CanonicalName: "  OATMEAL ", Amount: 40, UnitID: 147}},
	})
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.ResponseJSON, second.ResponseJSON)
	assert.Len(t, upstream.logCalls, 1)
}

func TestLogMealKeyReuseWithDifferentBody(t *testing.T) {
	st, _ := setupStore(t)
	upstream := &fakeUpstream{}
	svc := NewMealService(st, upstream)
	ctx := context.Background()

	registerFood(t, st, "oatmeal", 101)

	first, err := svc.LogMeal(ctx, "key-1", LogMealRequest{
		Date:       "2024-06-01",
		MealTypeID: 1,
		Items:      []MealItem{{CanonicalName: "oatmeal", Amount: 40, UnitID: 147}},
	})
	require.NoError(t, err)

	_, err = svc.LogMeal(ctx, "key-1", LogMealRequest{
		Date:       "2024-06-01",
		MealTypeID: 1,
		Items:      []MealItem{{CanonicalName: "oatmeal", Amount: 80, UnitID: 147}},
	})
	assert.ErrorIs(t, err, ErrIdempotencyConflict)

	// The cached response is untouched by the rejected reuse.
	replay, err := svc.LogMeal(ctx, "key-1", LogMealRequest{
		Date:       "2024-06-01",
		MealTypeID: 1,
		Items:      []MealItem{{CanonicalName: "oatmeal", Amount: 40, UnitID: 147}},
	})
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, first.ResponseJSON, replay.ResponseJSON)
	assert.Len(t, upstream.logCalls, 1)
}

func TestLogMealValidation(t *testing.T) {
	st, _ := setupStore(t)
	svc := NewMealService(st, &fakeUpstream{})
	ctx := context.Background()

	cases := []struct {
		name string
		req  LogMealRequest
	}{
		{"bad date", LogMealRequest{
			Date: "01-06-2024", MealTypeID: 1,
			Items: []MealItem{{FoodID: 1, Amount: 1, UnitID: 1}},
		}},
		{"no items", LogMealRequest{Date: "2024-06-01", MealTypeID: 1}},
		{"neither name nor id", LogMealRequest{
			Date: "2024-06-01", MealTypeID: 1,
			Items: []MealItem{{Amount: 1, UnitID: 1}},
		}},
		{"both name and id", LogMealRequest{
			Date: "2024-06-01", MealTypeID: 1,
			Items: []MealItem{{CanonicalName: "oatmeal", FoodID: 1, Amount: 1, UnitID: 1}},
		}},
		{"zero amount", LogMealRequest{
			Date: "2024-06-01", MealTypeID: 1,
			Items: []MealItem{{FoodID: 1, UnitID: 1}},
		}},
		{"missing unit", LogMealRequest{
			Date: "2024-06-01", MealTypeID: 1,
			Items: []MealItem{{FoodID: 1, Amount: 1}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.LogMeal(ctx, "", tc.req)
			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestLogMealWhitespaceOnlyNameTreatedAsAbsent(t *testing.T) {
	st, _ := setupStore(t)
	svc := NewMealService(st, &fakeUpstream{})

	// A whitespace-only name normalizes to empty, so this item has neither
	// a name nor an id.
	_, err := svc.LogMeal(context.Background(), "", LogMealRequest{
		Date:       "2024-06-01",
		MealTypeID: 1,
		Items:      []MealItem{{CanonicalName: "   ", Amount: 1, UnitID: 1}},
	})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestLogMealAuditRecordsNormalizedRequest(t *testing.T) {
	st, db := setupStore(t)
	svc := NewMealService(st, &fakeUpstream{})
	ctx := context.Background()

	registerFood(t, st, "oatmeal", 101)

	_, err := svc.LogMeal(ctx, "", LogMealRequest{
		Date:       "2024-06-01",
		MealTypeID: 7,
		Items:      []MealItem{{CanonicalName: " OATMEAL ", Amount: 40, UnitID: 147}},
	})
	require.NoError(t, err)

	var record models.MealLog
	require.NoError(t, db.First(&record).Error)
	assert.Equal(t, "2024-06-01", record.Date)
	assert.Equal(t, int64(7), record.MealTypeID)

	var audited LogMealRequest
	require.NoError(t, json.Unmarshal([]byte(record.RequestJSON), &audited))
	require.Len(t, audited.Items, 1)
	assert.Equal(t, "oatmeal", audited.Items[0].CanonicalName)
}
