package models

import (
	"time"

	"github.com/google/uuid"
)

type WebhookExecution struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	WebhookID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	DeviceID    uuid.UUID  `gorm:"type:uuid;not null"`
	UserID      *uuid.UUID `gorm:"type:uuid"`
	ApiKeyID    *uuid.UUID `gorm:"type:uuid"`
	AuthKind    string     `gorm:"type:varchar(20);not null"`
	Status      string     `gorm:"type:varchar(20);not null"`
	Payload     string     `gorm:"type:text"`
	ErrorDetail *string    `gorm:"type:text"`
	DurationMs  int64      `gorm:"not null;default:0"`
	CallerIP    string     `gorm:"type:varchar(45)"`
	UserAgent   string     `gorm:"type:varchar(512)"`
	CreatedAt   time.Time  `gorm:"index"`
}

type AnalyticsDaily struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	WebhookID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_analytics_webhook_date"`
	Date         string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_analytics_webhook_date"` // 2006-01-02 (UTC)
	TriggerCount int64     `gorm:"not null;default:0"`
	SuccessCount int64     `gorm:"not null;default:0"`
	FailureCount int64     `gorm:"not null;default:0"`
	AvgLatencyMs float64   `gorm:"not null;default:0"`
}
