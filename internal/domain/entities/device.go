package entities

import (
	"time"

	"github.com/google/uuid"
)

// PushEnvironment selects the push endpoint a device registered against.
type PushEnvironment string

const (
	PushEnvironmentSandbox    PushEnvironment = "sandbox"
	PushEnvironmentProduction PushEnvironment = "production"
)

// Device represents a registered device that can run shortcuts. The push
// secret is stored encrypted; the hash is a deterministic lookup key used for
// re-registration and is never decrypted.
type Device struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	Name            string          `json:"name"`
	SecretEncrypted string          `json:"-"`
	SecretHash      string          `json:"-"`
	Environment     PushEnvironment `json:"environment"`
	IsActive        bool            `json:"isActive"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	User *User `json:"user,omitempty"`
}

type RegisterDeviceInput struct {
	Name        string `json:"name" binding:"required"`
	SecretToken string `json:"secretToken" binding:"required"`
	Environment string `json:"environment" binding:"omitempty,oneof=sandbox production"`
}
