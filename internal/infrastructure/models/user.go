package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Email           string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name            string    `gorm:"type:varchar(100);not null"`
	PasswordHash    string    `gorm:"type:text;not null"`
	IsActive        bool      `gorm:"default:true;not null"`
	IsEmailVerified bool      `gorm:"default:false;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
