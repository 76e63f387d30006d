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

// WebhookRepository implements webhook data operations
type WebhookRepository struct {
	db *gorm.DB
}

// NewWebhookRepository creates a new webhook repository
func NewWebhookRepository(db *gorm.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

// Create creates a new webhook
func (r *WebhookRepository) Create(ctx context.Context, webhook *entities.Webhook) error {
	if webhook.ID == uuid.Nil {
		webhook.ID = uuid.New()
	}

	allowedIPs, err := json.Marshal(webhook.AllowedIPs)
	if err != nil {
		return err
	}

	m := &models.Webhook{
		ID:           webhook.ID,
		PublicID:     webhook.PublicID,
		DeviceID:     webhook.DeviceID,
		UserID:       webhook.UserID,
		ShortcutID:   webhook.ShortcutID,
		ShortcutName: webhook.ShortcutName,
		AllowedIPs:   string(allowedIPs),
		TriggerCount: webhook.TriggerCount,
		IsActive:     webhook.IsActive,
		CreatedAt:    webhook.CreatedAt,
		UpdatedAt:    webhook.UpdatedAt,
	}
	if webhook.SecretEncrypted.Valid {
		m.SecretEncrypted = &webhook.SecretEncrypted.String
	}
	if webhook.ExpiresAt.Valid {
		m.ExpiresAt = &webhook.ExpiresAt.Time
	}
	if webhook.MaxUses.Valid {
		m.MaxUses = &webhook.MaxUses.Int64
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// GetByPublicID loads an active webhook by public identifier with its owning
// device and user preloaded for the gate's liveness checks.
func (r *WebhookRepository) GetByPublicID(ctx context.Context, publicID string) (*entities.Webhook, error) {
	var m models.Webhook
	err := r.db.WithContext(ctx).
		Preload("Device").
		Preload("Device.User").
		Where("public_id = ? AND is_active = ?", publicID, true).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return webhookToEntity(&m), nil
}

// GetByID gets a webhook by internal ID
func (r *WebhookRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Webhook, error) {
	var m models.Webhook
	if err := r.db.WithContext(ctx).Preload("Device").Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return webhookToEntity(&m), nil
}

// ListByUser lists a user's active webhooks
func (r *WebhookRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Webhook, error) {
	var webhookModels []models.Webhook
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&webhookModels).Error
	if err != nil {
		return nil, err
	}

	webhooks := make([]*entities.Webhook, 0, len(webhookModels))
	for i := range webhookModels {
		webhooks = append(webhooks, webhookToEntity(&webhookModels[i]))
	}
	return webhooks, nil
}

// IncrementTriggerCount bumps the usage counter in one conditional statement.
// The cap check lives in the WHERE clause so concurrent triggers cannot push
// the counter past max_uses.
func (r *WebhookRepository) IncrementTriggerCount(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Webhook{}).
		Where("id = ? AND is_active = ? AND (max_uses IS NULL OR trigger_count < max_uses)", id, true).
		Updates(map[string]interface{}{
			"trigger_count":     gorm.Expr("trigger_count + 1"),
			"last_triggered_at": at,
			"updated_at":        at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ReplaceIdentity swaps the public identifier and signing secret (rotation)
func (r *WebhookRepository) ReplaceIdentity(ctx context.Context, id uuid.UUID, newPublicID, newSecretEncrypted string) error {
	updates := map[string]interface{}{
		"public_id":  newPublicID,
		"updated_at": time.Now(),
	}
	if newSecretEncrypted != "" {
		updates["secret_encrypted"] = newSecretEncrypted
	}

	result := r.db.WithContext(ctx).Model(&models.Webhook{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// Deactivate soft-deactivates a webhook
func (r *WebhookRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Webhook{}).
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

func webhookToEntity(m *models.Webhook) *entities.Webhook {
	var allowedIPs []string
	if m.AllowedIPs != "" {
		// Malformed rows behave as unrestricted rather than failing lookups.
		_ = json.Unmarshal([]byte(m.AllowedIPs), &allowedIPs)
	}

	w := &entities.Webhook{
		ID:              m.ID,
		PublicID:        m.PublicID,
		DeviceID:        m.DeviceID,
		UserID:          m.UserID,
		ShortcutID:      m.ShortcutID,
		ShortcutName:    m.ShortcutName,
		SecretEncrypted: null.StringFromPtr(m.SecretEncrypted),
		ExpiresAt:       null.TimeFromPtr(m.ExpiresAt),
		MaxUses:         null.Int64FromPtr(m.MaxUses),
		AllowedIPs:      allowedIPs,
		TriggerCount:    m.TriggerCount,
		LastTriggeredAt: null.TimeFromPtr(m.LastTriggeredAt),
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.Device.ID != uuid.Nil {
		w.Device = deviceToEntity(&m.Device)
	}
	return w
}

// WebhookRotationRepository implements rotation history operations
type WebhookRotationRepository struct {
	db *gorm.DB
}

// NewWebhookRotationRepository creates a new rotation repository
func NewWebhookRotationRepository(db *gorm.DB) *WebhookRotationRepository {
	return &WebhookRotationRepository{db: db}
}

// Create appends one rotation record
func (r *WebhookRotationRepository) Create(ctx context.Context, rotation *entities.WebhookRotation) error {
	if rotation.ID == uuid.Nil {
		rotation.ID = uuid.New()
	}
	m := &models.WebhookRotation{
		ID:          rotation.ID,
		WebhookID:   rotation.WebhookID,
		OldPublicID: rotation.OldPublicID,
		NewPublicID: rotation.NewPublicID,
		ActorUserID: rotation.ActorUserID,
		Reason:      rotation.Reason,
		CreatedAt:   rotation.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// ListByWebhook lists rotations for one webhook, newest first
func (r *WebhookRotationRepository) ListByWebhook(ctx context.Context, webhookID uuid.UUID) ([]*entities.WebhookRotation, error) {
	var rotationModels []models.WebhookRotation
	err := r.db.WithContext(ctx).
		Where("webhook_id = ?", webhookID).
		Order("created_at DESC").
		Find(&rotationModels).Error
	if err != nil {
		return nil, err
	}

	rotations := make([]*entities.WebhookRotation, 0, len(rotationModels))
	for i := range rotationModels {
		m := rotationModels[i]
		rotations = append(rotations, &entities.WebhookRotation{
			ID:          m.ID,
			WebhookID:   m.WebhookID,
			OldPublicID: m.OldPublicID,
			NewPublicID: m.NewPublicID,
			ActorUserID: m.ActorUserID,
			Reason:      m.Reason,
			CreatedAt:   m.CreatedAt,
		})
	}
	return rotations, nil
}
