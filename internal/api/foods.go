package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealbridge/backend/internal/models"
	"github.com/mealbridge/backend/internal/service"
)

// CreateFoodRequest registers a food that does not exist upstream yet; the
// bridge creates it on Fitbit first.
type CreateFoodRequest struct {
	CanonicalName string   `json:"canonicalName" binding:"required"`
	DisplayName   string   `json:"displayName" binding:"required"`
	DefaultUnitID int64    `json:"defaultUnitId" binding:"required"`
	DefaultAmount float64  `json:"defaultAmount" binding:"required,gt=0"`
	Calories      float64  `json:"calories" binding:"required"`
	ProteinG      *float64 `json:"protein_g"`
	CarbsG        *float64 `json:"carbs_g"`
	FatG          *float64 `json:"fat_g"`
}

// RegisterFoodRequest records a mapping for an already-existing Fitbit
// food; no upstream call is made.
type RegisterFoodRequest struct {
	CanonicalName string   `json:"canonicalName" binding:"required"`
	DisplayName   string   `json:"displayName" binding:"required"`
	FitbitFoodID  int64    `json:"fitbitFoodId" binding:"required"`
	DefaultUnitID int64    `json:"defaultUnitId" binding:"required"`
	DefaultAmount float64  `json:"defaultAmount" binding:"required,gt=0"`
	Calories      float64  `json:"calories" binding:"required"`
	ProteinG      *float64 `json:"protein_g"`
	CarbsG        *float64 `json:"carbs_g"`
	FatG          *float64 `json:"fat_g"`
}

// FoodResponse is the shape returned by both registration endpoints.
type FoodResponse struct {
	CanonicalName string  `json:"canonicalName"`
	FitbitFoodID  int64   `json:"fitbitFoodId"`
	DefaultUnitID int64   `json:"defaultUnitId"`
	DefaultAmount float64 `json:"defaultAmount"`
}

// FoodHandler serves the food registry endpoints.
type FoodHandler struct {
	foods *service.FoodService
}

// NewFoodHandler creates the food registry handler.
func NewFoodHandler(foods *service.FoodService) *FoodHandler {
	return &FoodHandler{foods: foods}
}

// RegisterRoutes registers the food routes on the given group.
func (h *FoodHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/foods", h.List)
	r.POST("/foods", h.Create)
	r.POST("/foods/register", h.Register)
}

// List returns every registered food.
func (h *FoodHandler) List(c *gin.Context) {
	foods, err := h.foods.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, foods)
}

// Create registers a food upstream and locally.
func (h *FoodHandler) Create(c *gin.Context) {
	var req CreateFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	food, err := h.foods.Create(c.Request.Context(), service.FoodInput{
		CanonicalName: req.CanonicalName,
		DisplayName:   req.DisplayName,
		DefaultUnitID: req.DefaultUnitID,
		DefaultAmount: req.DefaultAmount,
		Calories:      req.Calories,
		ProteinG:      req.ProteinG,
		CarbsG:        req.CarbsG,
		FatG:          req.FatG,
	}, overwriteRequested(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, foodResponse(food))
}

// Register records a mapping for a known Fitbit food id.
func (h *FoodHandler) Register(c *gin.Context) {
	var req RegisterFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "VALIDATION_ERROR", "message": err.Error()})
		return
	}

	food, err := h.foods.Register(c.Request.Context(), service.FoodInput{
		CanonicalName: req.CanonicalName,
		DisplayName:   req.DisplayName,
		FitbitFoodID:  req.FitbitFoodID,
		DefaultUnitID: req.DefaultUnitID,
		DefaultAmount: req.DefaultAmount,
		Calories:      req.Calories,
		ProteinG:      req.ProteinG,
		CarbsG:        req.CarbsG,
		FatG:          req.FatG,
	}, overwriteRequested(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, foodResponse(food))
}

func overwriteRequested(c *gin.Context) bool {
	return c.Query("overwrite") == "true"
}

func foodResponse(food *models.Food) FoodResponse {
	return FoodResponse{
		CanonicalName: food.CanonicalName,
		FitbitFoodID:  food.FitbitFoodID,
		DefaultUnitID: food.DefaultUnitID,
		DefaultAmount: food.DefaultAmount,
	}
}
