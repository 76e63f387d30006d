package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"shortcut-relay.backend/internal/domain/entities"
)

// ApiKeyRepository defines API key data operations
type ApiKeyRepository interface {
	Create(ctx context.Context, key *entities.ApiKey) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.ApiKey, error)
	FindByKeyHash(ctx context.Context, keyHash string) (*entities.ApiKey, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entities.ApiKey, error)
	// TouchLastUsed records the observable side effect of a successful lookup.
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time, ip string) error
	Revoke(ctx context.Context, id uuid.UUID) error
}
