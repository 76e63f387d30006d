package models

import "time"

// RateLimitWindow uses a composite primary key so the insert-or-increment
// race resolves at the store level.
type RateLimitWindow struct {
	Identifier   string    `gorm:"type:varchar(128);primaryKey"`
	WindowStart  time.Time `gorm:"primaryKey"`
	RequestCount int64     `gorm:"not null;default:0"`
}
