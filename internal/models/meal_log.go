package models

import (
	"time"

	"github.com/google/uuid"
)

// MealLog is an append-only audit entry for a fully processed meal-log
// request. It is written after every upstream call succeeded and is never
// read back by the bridge itself.
type MealLog struct {
	ID           uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	Date         string    `gorm:"not null" json:"date"`
	MealTypeID   int64     `gorm:"not null" json:"meal_type_id"`
	RequestJSON  string    `gorm:"not null" json:"request_json"`
	ResponseJSON string    `gorm:"not null" json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}
