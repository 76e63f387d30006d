package entities

import (
	"time"

	"github.com/google/uuid"
)

// Session is a long-lived login credential. Only the SHA-256 hash of the
// opaque token is stored; invalidated on logout, expiry or password change.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`

	User *User `json:"user,omitempty"`
}

// Expired reports whether the session has passed its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
