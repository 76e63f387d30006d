package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLogEntry struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID       *uuid.UUID `gorm:"type:uuid;index"`
	Action       string     `gorm:"type:varchar(64);not null;index"`
	ResourceType string     `gorm:"type:varchar(32);not null"`
	ResourceID   string     `gorm:"type:varchar(64);not null;index"`
	Detail       string     `gorm:"type:text"` // JSON blob
	IP           string     `gorm:"type:varchar(45)"`
	UserAgent    string     `gorm:"type:varchar(512)"`
	CreatedAt    time.Time  `gorm:"index"`
}
