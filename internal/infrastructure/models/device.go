package models

import (
	"time"

	"github.com/google/uuid"
)

type Device struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Name            string    `gorm:"type:varchar(100);not null"`
	SecretEncrypted string    `gorm:"type:text;not null"`               // AES-256-GCM
	SecretHash      string    `gorm:"type:varchar(64);uniqueIndex;not null"` // SHA256, lookup only
	Environment     string    `gorm:"type:varchar(20);not null;default:'production'"`
	IsActive        bool      `gorm:"default:true;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	User            User `gorm:"foreignKey:UserID"`
}
