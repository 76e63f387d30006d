package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"shortcut-relay.backend/internal/domain/entities"
)

// WebhookRepository defines webhook data operations.
type WebhookRepository interface {
	Create(ctx context.Context, webhook *entities.Webhook) error
	// GetByPublicID loads an active webhook by its public identifier with the
	// owning device preloaded. Inactive webhooks are not found.
	GetByPublicID(ctx context.Context, publicID string) (*entities.Webhook, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Webhook, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Webhook, error)
	// IncrementTriggerCount bumps the usage counter atomically, honoring the
	// optional usage cap in the same statement. Returns false when the cap
	// would be exceeded.
	IncrementTriggerCount(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	// ReplaceIdentity swaps the public identifier and signing secret in place.
	ReplaceIdentity(ctx context.Context, id uuid.UUID, newPublicID, newSecretEncrypted string) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// WebhookRotationRepository records identifier rotations, append-only.
type WebhookRotationRepository interface {
	Create(ctx context.Context, rotation *entities.WebhookRotation) error
	ListByWebhook(ctx context.Context, webhookID uuid.UUID) ([]*entities.WebhookRotation, error)
}
