package models

import "time"

// IdempotencyKey records one processed meal-log request per client-chosen
// key. A row is created as a reservation before execution (empty
// ResponseJSON), completed with the response on success, and deleted if
// execution fails. A completed row is never modified.
type IdempotencyKey struct {
	Key          string    `gorm:"primarykey" json:"key"`
	RequestHash  string    `gorm:"not null" json:"request_hash"`
	ResponseJSON string    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}

// Completed reports whether the request behind this key finished
// successfully; an incomplete row is an in-flight reservation.
func (k IdempotencyKey) Completed() bool {
	return k.ResponseJSON != ""
}
