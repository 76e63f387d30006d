package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// ScopeAll is the wildcard permission matching any required scope.
const ScopeAll = "*"

// ApiKey represents an API key for a user. The raw key value is returned only
// at creation time; lookups go through the SHA-256 hash.
type ApiKey struct {
	ID              uuid.UUID   `json:"id"`
	UserID          uuid.UUID   `json:"userId"`
	Name            string      `json:"name"`
	KeyPrefix       string      `json:"keyPrefix"`
	KeyHash         string      `json:"-"`
	Permissions     []string    `json:"permissions"`
	RateLimitPerMin null.Int    `json:"rateLimitPerMin,omitempty"`
	IsActive        bool        `json:"isActive"`
	LastUsedAt      null.Time   `json:"lastUsedAt,omitempty"`
	LastUsedIP      null.String `json:"lastUsedIp,omitempty"`
	ExpiresAt       null.Time   `json:"expiresAt,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`

	User *User `json:"user,omitempty"`
}

// HasScope reports whether the key grants the required scope, either exactly
// or through the wildcard.
func (k *ApiKey) HasScope(required string) bool {
	if required == "" {
		return true
	}
	for _, p := range k.Permissions {
		if p == required || p == ScopeAll {
			return true
		}
	}
	return false
}

type CreateApiKeyInput struct {
	Name            string   `json:"name" binding:"required"`
	Permissions     []string `json:"permissions"`
	RateLimitPerMin *int     `json:"rateLimitPerMin"`
}

type CreateApiKeyResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ApiKey    string    `json:"apiKey"` // shown once
	CreatedAt time.Time `json:"createdAt"`
}
