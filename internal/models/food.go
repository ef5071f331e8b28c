package models

import (
	"time"

	"github.com/google/uuid"
)

// Food maps a canonical name to the Fitbit food it should be logged as,
// together with the default serving used when the caller does not override
// amount or unit.
type Food struct {
	ID            uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	CanonicalName string    `gorm:"uniqueIndex;not null" json:"canonical_name"`
	DisplayName   string    `gorm:"not null" json:"display_name"`
	FitbitFoodID  int64     `gorm:"not null" json:"fitbit_food_id"`
	DefaultUnitID int64     `gorm:"not null" json:"default_unit_id"`
	DefaultAmount float64   `gorm:"not null" json:"default_amount"`
	Calories      float64   `gorm:"not null" json:"calories"`
	ProteinG      *float64  `json:"protein_g"`
	CarbsG        *float64  `json:"carbs_g"`
	FatG          *float64  `json:"fat_g"`
	CreatedAt     time.Time `json:"created_at"`
}
