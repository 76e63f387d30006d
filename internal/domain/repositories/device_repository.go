package repositories

import (
	"context"

	"github.com/google/uuid"
	"shortcut-relay.backend/internal/domain/entities"
)

// DeviceRepository defines device data operations. Devices are never
// physically deleted, only deactivated.
type DeviceRepository interface {
	Create(ctx context.Context, device *entities.Device) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Device, error)
	GetBySecretHash(ctx context.Context, secretHash string) (*entities.Device, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Device, error)
	Update(ctx context.Context, device *entities.Device) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}
