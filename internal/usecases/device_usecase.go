package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"shortcut-relay.backend/internal/domain/entities"
	domainerrors "shortcut-relay.backend/internal/domain/errors"
	"shortcut-relay.backend/internal/domain/repositories"
	"shortcut-relay.backend/pkg/crypto"
)

// DeviceUsecase handles device registration and lifecycle. Device push
// secrets are stored encrypted; the deterministic hash exists only so
// re-registration with the same secret updates the row instead of forking it.
type DeviceUsecase struct {
	deviceRepo    repositories.DeviceRepository
	recorder      *ExecutionRecorder
	encryptionKey []byte
	clock         func() time.Time
}

// NewDeviceUsecase creates a new device usecase
func NewDeviceUsecase(deviceRepo repositories.DeviceRepository, recorder *ExecutionRecorder, encryptionKey []byte) *DeviceUsecase {
	return &DeviceUsecase{
		deviceRepo:    deviceRepo,
		recorder:      recorder,
		encryptionKey: encryptionKey,
		clock:         time.Now,
	}
}

// Register creates a device, or updates and reactivates the existing row
// when the same secret re-registers.
func (u *DeviceUsecase) Register(ctx context.Context, userID uuid.UUID, input *entities.RegisterDeviceInput, ip string) (*entities.Device, error) {
	environment := entities.PushEnvironment(input.Environment)
	if environment == "" {
		environment = entities.PushEnvironmentProduction
	}

	secretHash := crypto.SHA256Hex(input.SecretToken)
	secretEncrypted, err := crypto.EncryptSecret(input.SecretToken, u.encryptionKey)
	if err != nil {
		return nil, err
	}

	existing, err := u.deviceRepo.GetBySecretHash(ctx, secretHash)
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	now := u.clock().UTC()
	if existing != nil {
		if existing.UserID != userID {
			return nil, domainerrors.Conflict("device already registered to another account")
		}
		existing.Name = input.Name
		existing.SecretEncrypted = secretEncrypted
		existing.Environment = environment
		existing.IsActive = true
		if err := u.deviceRepo.Update(ctx, existing); err != nil {
			return nil, err
		}
		u.auditDevice(ctx, userID, existing.ID, entities.AuditActionDeviceRegistered, ip)
		return existing, nil
	}

	device := &entities.Device{
		UserID:          userID,
		Name:            input.Name,
		SecretEncrypted: secretEncrypted,
		SecretHash:      secretHash,
		Environment:     environment,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := u.deviceRepo.Create(ctx, device); err != nil {
		return nil, err
	}
	u.auditDevice(ctx, userID, device.ID, entities.AuditActionDeviceRegistered, ip)
	return device, nil
}

// List returns the user's active devices
func (u *DeviceUsecase) List(ctx context.Context, userID uuid.UUID) ([]*entities.Device, error) {
	return u.deviceRepo.ListByUser(ctx, userID)
}

// Deactivate soft-deactivates a device owned by the user. Its webhooks stop
// resolving through the gate's device liveness check.
func (u *DeviceUsecase) Deactivate(ctx context.Context, userID, deviceID uuid.UUID, ip string) error {
	device, err := u.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("device not found")
		}
		return err
	}
	if device.UserID != userID {
		return domainerrors.Forbidden("device belongs to another user")
	}

	if err := u.deviceRepo.Deactivate(ctx, deviceID); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("device not found")
		}
		return err
	}
	u.auditDevice(ctx, userID, deviceID, entities.AuditActionDeviceDeactivated, ip)
	return nil
}

func (u *DeviceUsecase) auditDevice(ctx context.Context, userID, deviceID uuid.UUID, action, ip string) {
	u.recorder.Audit(ctx, &entities.AuditLogEntry{
		UserID:       uuid.NullUUID{UUID: userID, Valid: true},
		Action:       action,
		ResourceType: "device",
		ResourceID:   deviceID.String(),
		IP:           ip,
		CreatedAt:    u.clock().UTC(),
	})
}
