package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"shortcut-relay.backend/internal/domain/entities"
	domainerrors "shortcut-relay.backend/internal/domain/errors"
	"shortcut-relay.backend/internal/domain/repositories"
	"shortcut-relay.backend/pkg/crypto"
)

// WebhookUsecase handles webhook creation and management. Triggering lives in
// the orchestrator; this side is the owner-facing CRUD surface.
type WebhookUsecase struct {
	webhookRepo   repositories.WebhookRepository
	deviceRepo    repositories.DeviceRepository
	recorder      *ExecutionRecorder
	idStrategy    WebhookIDStrategy
	encryptionKey []byte
	clock         func() time.Time
}

// NewWebhookUsecase creates a new webhook usecase
func NewWebhookUsecase(
	webhookRepo repositories.WebhookRepository,
	deviceRepo repositories.DeviceRepository,
	recorder *ExecutionRecorder,
	encryptionKey []byte,
) *WebhookUsecase {
	return &WebhookUsecase{
		webhookRepo:   webhookRepo,
		deviceRepo:    deviceRepo,
		recorder:      recorder,
		idStrategy:    RandomIDStrategy{},
		encryptionKey: encryptionKey,
		clock:         time.Now,
	}
}

// Create mints a webhook with a full-entropy public identifier. The optional
// signing secret is returned exactly once; only its ciphertext is stored.
func (u *WebhookUsecase) Create(ctx context.Context, userID uuid.UUID, input *entities.CreateWebhookInput, ip string) (*entities.CreateWebhookResponse, error) {
	device, err := u.deviceRepo.GetByID(ctx, input.DeviceID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("device not found")
		}
		return nil, err
	}
	if device.UserID != userID {
		return nil, domainerrors.Forbidden("device belongs to another user")
	}
	if !device.IsActive {
		return nil, domainerrors.BadRequest("device is deactivated")
	}

	now := u.clock().UTC()
	if input.ExpiresAt != nil && input.ExpiresAt.Before(now) {
		return nil, domainerrors.BadRequest("expiry is in the past")
	}
	if input.MaxUses != nil && *input.MaxUses <= 0 {
		return nil, domainerrors.BadRequest("maxUses must be positive")
	}

	publicID, err := u.idStrategy.Generate(device.SecretHash, input.ShortcutID, now)
	if err != nil {
		return nil, err
	}

	var rawSecret string
	var secretEncrypted null.String
	if input.WithSecret {
		rawSecret, err = crypto.RandomID(webhookIDBytes)
		if err != nil {
			return nil, err
		}
		ciphertext, err := crypto.EncryptSecret(rawSecret, u.encryptionKey)
		if err != nil {
			return nil, err
		}
		secretEncrypted = null.StringFrom(ciphertext)
	}

	allowedIPs := input.AllowedIPs
	if allowedIPs == nil {
		allowedIPs = []string{}
	}

	webhook := &entities.Webhook{
		PublicID:        publicID,
		DeviceID:        device.ID,
		UserID:          userID,
		ShortcutID:      input.ShortcutID,
		ShortcutName:    input.ShortcutName,
		SecretEncrypted: secretEncrypted,
		ExpiresAt:       null.TimeFromPtr(input.ExpiresAt),
		MaxUses:         null.Int64FromPtr(input.MaxUses),
		AllowedIPs:      allowedIPs,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := u.webhookRepo.Create(ctx, webhook); err != nil {
		return nil, err
	}

	u.auditWebhook(ctx, userID, webhook.ID, entities.AuditActionWebhookCreated, ip)

	return &entities.CreateWebhookResponse{
		ID:        webhook.ID,
		WebhookID: publicID,
		Secret:    rawSecret,
		CreatedAt: now,
	}, nil
}

// List returns the user's active webhooks
func (u *WebhookUsecase) List(ctx context.Context, userID uuid.UUID) ([]*entities.Webhook, error) {
	return u.webhookRepo.ListByUser(ctx, userID)
}

// Revoke soft-deactivates a webhook owned by the user
func (u *WebhookUsecase) Revoke(ctx context.Context, userID, webhookID uuid.UUID, ip string) error {
	webhook, err := u.webhookRepo.GetByID(ctx, webhookID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("webhook not found")
		}
		return err
	}
	if webhook.UserID != userID {
		return domainerrors.Forbidden("webhook belongs to another user")
	}

	if err := u.webhookRepo.Deactivate(ctx, webhookID); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("webhook not found")
		}
		return err
	}
	u.auditWebhook(ctx, userID, webhookID, entities.AuditActionWebhookRevoked, ip)
	return nil
}

func (u *WebhookUsecase) auditWebhook(ctx context.Context, userID, webhookID uuid.UUID, action, ip string) {
	u.recorder.Audit(ctx, &entities.AuditLogEntry{
		UserID:       uuid.NullUUID{UUID: userID, Valid: true},
		Action:       action,
		ResourceType: "webhook",
		ResourceID:   webhookID.String(),
		IP:           ip,
		CreatedAt:    u.clock().UTC(),
	})
}
