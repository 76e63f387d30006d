package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"shortcut-relay.backend/internal/domain/entities"
	domainerrors "shortcut-relay.backend/internal/domain/errors"
	"shortcut-relay.backend/internal/infrastructure/models"
)

// ApiKeyRepository implements API key data operations
type ApiKeyRepository struct {
	db *gorm.DB
}

// NewApiKeyRepository creates a new API key repository
func NewApiKeyRepository(db *gorm.DB) *ApiKeyRepository {
	return &ApiKeyRepository{db: db}
}

// Create creates a new API key
func (r *ApiKeyRepository) Create(ctx context.Context, key *entities.ApiKey) error {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}

	permissions, err := json.Marshal(key.Permissions)
	if err != nil {
		return err
	}

	m := &models.ApiKey{
		ID:          key.ID,
		UserID:      key.UserID,
		Name:        key.Name,
		KeyPrefix:   key.KeyPrefix,
		KeyHash:     key.KeyHash,
		Permissions: string(permissions),
		IsActive:    key.IsActive,
		CreatedAt:   key.CreatedAt,
		UpdatedAt:   key.UpdatedAt,
	}
	if key.RateLimitPerMin.Valid {
		m.RateLimitPerMin = &key.RateLimitPerMin.Int
	}
	if key.ExpiresAt.Valid {
		m.ExpiresAt = &key.ExpiresAt.Time
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// FindByID gets an API key by ID
func (r *ApiKeyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.ApiKey, error) {
	var m models.ApiKey
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return apiKeyToEntity(&m), nil
}

// FindByKeyHash finds an active API key by its hash with the owner preloaded
func (r *ApiKeyRepository) FindByKeyHash(ctx context.Context, keyHash string) (*entities.ApiKey, error) {
	var m models.ApiKey
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("key_hash = ? AND is_active = ?", keyHash, true).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return apiKeyToEntity(&m), nil
}

// FindByUserID lists a user's active API keys
func (r *ApiKeyRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entities.ApiKey, error) {
	var keyModels []models.ApiKey
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&keyModels).Error
	if err != nil {
		return nil, err
	}

	keys := make([]*entities.ApiKey, 0, len(keyModels))
	for i := range keyModels {
		keys = append(keys, apiKeyToEntity(&keyModels[i]))
	}
	return keys, nil
}

// TouchLastUsed records last use time and caller IP
func (r *ApiKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time, ip string) error {
	return r.db.WithContext(ctx).Model(&models.ApiKey{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_used_at": at,
			"last_used_ip": ip,
			"updated_at":   at,
		}).Error
}

// Revoke deactivates an API key
func (r *ApiKeyRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.ApiKey{}).
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

func apiKeyToEntity(m *models.ApiKey) *entities.ApiKey {
	var permissions []string
	if m.Permissions != "" {
		_ = json.Unmarshal([]byte(m.Permissions), &permissions)
	}

	k := &entities.ApiKey{
		ID:              m.ID,
		UserID:          m.UserID,
		Name:            m.Name,
		KeyPrefix:       m.KeyPrefix,
		KeyHash:         m.KeyHash,
		Permissions:     permissions,
		RateLimitPerMin: null.IntFromPtr(m.RateLimitPerMin),
		IsActive:        m.IsActive,
		LastUsedAt:      null.TimeFromPtr(m.LastUsedAt),
		LastUsedIP:      null.StringFromPtr(m.LastUsedIP),
		ExpiresAt:       null.TimeFromPtr(m.ExpiresAt),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.User.ID != uuid.Nil {
		k.User = userToEntity(&m.User)
	}
	return k
}
