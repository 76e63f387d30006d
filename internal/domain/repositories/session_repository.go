package repositories

import (
	"context"

	"github.com/google/uuid"
	"shortcut-relay.backend/internal/domain/entities"
)

// SessionRepository defines session data operations
type SessionRepository interface {
	Create(ctx context.Context, session *entities.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*entities.Session, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	DeactivateAllForUser(ctx context.Context, userID uuid.UUID) error
}
