package models

import "time"

// Category is a classification bucket. Default categories have a nil UserID,
// are shared by everyone and cannot be mutated or deleted.
type Category struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}
