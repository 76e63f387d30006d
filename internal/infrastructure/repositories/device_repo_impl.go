package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"shortcut-relay.backend/internal/domain/entities"
	domainerrors "shortcut-relay.backend/internal/domain/errors"
	"shortcut-relay.backend/internal/infrastructure/models"
)

// DeviceRepository implements device data operations
type DeviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create creates a new device
func (r *DeviceRepository) Create(ctx context.Context, device *entities.Device) error {
	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	m := &models.Device{
		ID:              device.ID,
		UserID:          device.UserID,
		Name:            device.Name,
		SecretEncrypted: device.SecretEncrypted,
		SecretHash:      device.SecretHash,
		Environment:     string(device.Environment),
		IsActive:        device.IsActive,
		CreatedAt:       device.CreatedAt,
		UpdatedAt:       device.UpdatedAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// GetByID gets a device by ID
func (r *DeviceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Device, error) {
	var m models.Device
	if err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return deviceToEntity(&m), nil
}

// GetBySecretHash finds a device by its deterministic secret hash. Used by
// re-registration, so inactive devices are found too.
func (r *DeviceRepository) GetBySecretHash(ctx context.Context, secretHash string) (*entities.Device, error) {
	var m models.Device
	if err := r.db.WithContext(ctx).Where("secret_hash = ?", secretHash).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return deviceToEntity(&m), nil
}

// ListByUser lists a user's active devices
func (r *DeviceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Device, error) {
	var deviceModels []models.Device
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&deviceModels).Error
	if err != nil {
		return nil, err
	}

	devices := make([]*entities.Device, 0, len(deviceModels))
	for i := range deviceModels {
		devices = append(devices, deviceToEntity(&deviceModels[i]))
	}
	return devices, nil
}

// Update updates a device's mutable fields (re-registration path)
func (r *DeviceRepository) Update(ctx context.Context, device *entities.Device) error {
	result := r.db.WithContext(ctx).Model(&models.Device{}).
		Where("id = ?", device.ID).
		Updates(map[string]interface{}{
			"name":             device.Name,
			"secret_encrypted": device.SecretEncrypted,
			"secret_hash":      device.SecretHash,
			"environment":      string(device.Environment),
			"is_active":        device.IsActive,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// Deactivate soft-deactivates a device. Rows are never physically deleted.
func (r *DeviceRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Device{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func deviceToEntity(m *models.Device) *entities.Device {
	d := &entities.Device{
		ID:              m.ID,
		UserID:          m.UserID,
		Name:            m.Name,
		SecretEncrypted: m.SecretEncrypted,
		SecretHash:      m.SecretHash,
		Environment:     entities.PushEnvironment(m.Environment),
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.User.ID != uuid.Nil {
		d.User = userToEntity(&m.User)
	}
	return d
}
