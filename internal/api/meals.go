package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealbridge/backend/internal/service"
)

// LogMealItem is one line item of a meal-log request.
type LogMealItem struct {
	CanonicalName string  `json:"canonicalName"`
	FoodID        int64   `json:"foodId"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	UnitID        int64   `json:"unitId" binding:"required"`
	Note          string  `json:"note"`
}

// LogMealRequest is the body of POST /meals/log.
type LogMealRequest struct {
	Date       string        `json:"date" binding:"required"`
	MealTypeID int64         `json:"mealTypeId" binding:"required"`
	Items      []LogMealItem `json:"items" binding:"required,min=1,dive"`
}

// MealHandler serves the meal logging endpoint.
type MealHandler struct {
	meals *service.MealService
}

// NewMealHandler creates the meal logging handler.
func NewMealHandler(meals *service.MealService) *MealHandler {
	return &MealHandler{meals: meals}
}

// RegisterRoutes registers the meal routes on the given group.
func (h *MealHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/meals/log", h.Log)
}

// Log processes one meal-log request. A replayed idempotent request gets
// the originally cached body byte-for-byte.
func (h *MealHandler) Log(c *gin.Context) {
	var req LogMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	items := make([]service.MealItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.MealItem{
			CanonicalName: item.CanonicalName,
			FoodID:        item.FoodID,
			Amount:        item.Amount,
			UnitID:        item.UnitID,
			Note:          item.Note,
		}
	}

	result, err := h.meals.LogMeal(c.Request.Context(), c.GetHeader("Idempotency-Key"), service.LogMealRequest{
		Date:       req.Date,
		MealTypeID: req.MealTypeID,
		Items:      items,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", []byte(result.ResponseJSON))
}
