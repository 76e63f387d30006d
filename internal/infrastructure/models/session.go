package models

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	TokenHash string    `gorm:"type:varchar(64);uniqueIndex;not null"` // SHA256 of token
	ExpiresAt time.Time `gorm:"not null"`
	IsActive  bool      `gorm:"default:true;not null"`
	CreatedAt time.Time
	User      User `gorm:"foreignKey:UserID"`
}
