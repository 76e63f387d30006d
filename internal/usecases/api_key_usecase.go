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

const (
	apiKeyBytes     = 24
	apiKeyPrefixLen = 12
	apiKeyPrefixTag = "sk_"
)

// ApiKeyUsecase handles API key lifecycle. The raw key is shown once at
// creation; storage and lookup go through its SHA-256 hash, with the prefix
// kept as a safe-to-display identifier.
type ApiKeyUsecase struct {
	apiKeyRepo repositories.ApiKeyRepository
	recorder   *ExecutionRecorder
	clock      func() time.Time
}

// NewApiKeyUsecase creates a new API key usecase
func NewApiKeyUsecase(apiKeyRepo repositories.ApiKeyRepository, recorder *ExecutionRecorder) *ApiKeyUsecase {
	return &ApiKeyUsecase{
		apiKeyRepo: apiKeyRepo,
		recorder:   recorder,
		clock:      time.Now,
	}
}

// Create mints a new API key
func (u *ApiKeyUsecase) Create(ctx context.Context, userID uuid.UUID, input *entities.CreateApiKeyInput, ip string) (*entities.CreateApiKeyResponse, error) {
	random, err := crypto.RandomID(apiKeyBytes)
	if err != nil {
		return nil, err
	}
	rawKey := apiKeyPrefixTag + random

	permissions := input.Permissions
	if len(permissions) == 0 {
		permissions = []string{ScopeTriggerWebhook}
	}

	now := u.clock().UTC()
	key := &entities.ApiKey{
		UserID:          userID,
		Name:            input.Name,
		KeyPrefix:       rawKey[:apiKeyPrefixLen],
		KeyHash:         crypto.SHA256Hex(rawKey),
		Permissions:     permissions,
		RateLimitPerMin: null.IntFromPtr(input.RateLimitPerMin),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := u.apiKeyRepo.Create(ctx, key); err != nil {
		return nil, err
	}

	u.auditKey(ctx, userID, key.ID, entities.AuditActionApiKeyCreated, ip)

	return &entities.CreateApiKeyResponse{
		ID:        key.ID,
		Name:      key.Name,
		ApiKey:    rawKey,
		CreatedAt: now,
	}, nil
}

// List returns the user's active API keys
func (u *ApiKeyUsecase) List(ctx context.Context, userID uuid.UUID) ([]*entities.ApiKey, error) {
	return u.apiKeyRepo.FindByUserID(ctx, userID)
}

// Revoke deactivates an API key owned by the user
func (u *ApiKeyUsecase) Revoke(ctx context.Context, userID, keyID uuid.UUID, ip string) error {
	key, err := u.apiKeyRepo.FindByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("api key not found")
		}
		return err
	}
	if key.UserID != userID {
		return domainerrors.Forbidden("api key belongs to another user")
	}

	if err := u.apiKeyRepo.Revoke(ctx, keyID); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("api key not found")
		}
		return err
	}
	u.auditKey(ctx, userID, keyID, entities.AuditActionApiKeyRevoked, ip)
	return nil
}

func (u *ApiKeyUsecase) auditKey(ctx context.Context, userID, keyID uuid.UUID, action, ip string) {
	u.recorder.Audit(ctx, &entities.AuditLogEntry{
		UserID:       uuid.NullUUID{UUID: userID, Valid: true},
		Action:       action,
		ResourceType: "api_key",
		ResourceID:   keyID.String(),
		IP:           ip,
		CreatedAt:    u.clock().UTC(),
	})
}
