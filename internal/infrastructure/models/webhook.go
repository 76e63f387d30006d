package models

import (
	"time"

	"github.com/google/uuid"
)

type Webhook struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	PublicID        string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	DeviceID        uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index"`
	ShortcutID      string    `gorm:"type:varchar(100);not null"`
	ShortcutName    string    `gorm:"type:varchar(255);not null"`
	SecretEncrypted *string   `gorm:"type:text"` // AES-256-GCM, HMAC key
	ExpiresAt       *time.Time
	MaxUses         *int64
	AllowedIPs      string `gorm:"type:text;not null;default:'[]'"` // JSON array
	TriggerCount    int64  `gorm:"not null;default:0"`
	LastTriggeredAt *time.Time
	IsActive        bool `gorm:"default:true;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Device          Device `gorm:"foreignKey:DeviceID"`
	User            User   `gorm:"foreignKey:UserID"`
}

type WebhookRotation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	WebhookID   uuid.UUID `gorm:"type:uuid;not null;index"`
	OldPublicID string    `gorm:"type:varchar(64);not null"`
	NewPublicID string    `gorm:"type:varchar(64);not null"`
	ActorUserID uuid.UUID `gorm:"type:uuid;not null"`
	Reason      string    `gorm:"type:text"`
	CreatedAt   time.Time
}
