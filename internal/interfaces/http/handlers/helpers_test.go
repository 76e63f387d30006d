package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shortcut-relay.backend/internal/domain/entities"
	domainerrors "shortcut-relay.backend/internal/domain/errors"
	"shortcut-relay.backend/internal/infrastructure/push"
	"shortcut-relay.backend/internal/interfaces/http/middleware"
)

// testEncryptionKey is a fixed 32-byte AES key for handler tests.
var testEncryptionKey = make([]byte, 32)

func withUser(user *entities.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserKey, user)
		c.Next()
	}
}

type userRepoStub struct {
	createFn     func(ctx context.Context, user *entities.User) error
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*entities.User, error)
	getByEmailFn func(ctx context.Context, email string) (*entities.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *entities.User) error {
	if s.createFn != nil {
		return s.createFn(ctx, user)
	}
	return nil
}
func (s *userRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, domainerrors.ErrNotFound
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	if s.getByEmailFn != nil {
		return s.getByEmailFn(ctx, email)
	}
	return nil, domainerrors.ErrNotFound
}
func (s *userRepoStub) UpdatePasswordHash(context.Context, uuid.UUID, string) error { return nil }
func (s *userRepoStub) Deactivate(context.Context, uuid.UUID) error                 { return nil }

type sessionRepoStub struct {
	createFn         func(ctx context.Context, session *entities.Session) error
	getByTokenHashFn func(ctx context.Context, tokenHash string) (*entities.Session, error)
	deactivateFn     func(ctx context.Context, id uuid.UUID) error
}

func (s *sessionRepoStub) Create(ctx context.Context, session *entities.Session) error {
	if s.createFn != nil {
		return s.createFn(ctx, session)
	}
	return nil
}
func (s *sessionRepoStub) GetByTokenHash(ctx context.Context, tokenHash string) (*entities.Session, error) {
	if s.getByTokenHashFn != nil {
		return s.getByTokenHashFn(ctx, tokenHash)
	}
	return nil, domainerrors.ErrNotFound
}
func (s *sessionRepoStub) Deactivate(ctx context.Context, id uuid.UUID) error {
	if s.deactivateFn != nil {
		return s.deactivateFn(ctx, id)
	}
	return nil
}
func (s *sessionRepoStub) DeactivateAllForUser(context.Context, uuid.UUID) error { return nil }

type apiKeyRepoStub struct {
	createFn       func(ctx context.Context, key *entities.ApiKey) error
	findByIDFn     func(ctx context.Context, id uuid.UUID) (*entities.ApiKey, error)
	findByUserIDFn func(ctx context.Context, userID uuid.UUID) ([]*entities.ApiKey, error)
	revokeFn       func(ctx context.Context, id uuid.UUID) error
}

func (s *apiKeyRepoStub) Create(ctx context.Context, key *entities.ApiKey) error {
	if s.createFn != nil {
		return s.createFn(ctx, key)
	}
	return nil
}
func (s *apiKeyRepoStub) FindByID(ctx context.Context, id uuid.UUID) (*entities.ApiKey, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return nil, domainerrors.ErrNotFound
}
func (s *apiKeyRepoStub) FindByKeyHash(context.Context, string) (*entities.ApiKey, error) {
	return nil, domainerrors.ErrNotFound
}
func (s *apiKeyRepoStub) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entities.ApiKey, error) {
	if s.findByUserIDFn != nil {
		return s.findByUserIDFn(ctx, userID)
	}
	return []*entities.ApiKey{}, nil
}
func (s *apiKeyRepoStub) TouchLastUsed(context.Context, uuid.UUID, time.Time, string) error {
	return nil
}
func (s *apiKeyRepoStub) Revoke(ctx context.Context, id uuid.UUID) error {
	if s.revokeFn != nil {
		return s.revokeFn(ctx, id)
	}
	return nil
}

type deviceRepoStub struct {
	createFn          func(ctx context.Context, device *entities.Device) error
	getByIDFn         func(ctx context.Context, id uuid.UUID) (*entities.Device, error)
	getBySecretHashFn func(ctx context.Context, secretHash string) (*entities.Device, error)
	listByUserFn      func(ctx context.Context, userID uuid.UUID) ([]*entities.Device, error)
	deactivateFn      func(ctx context.Context, id uuid.UUID) error
}

func (s *deviceRepoStub) Create(ctx context.Context, device *entities.Device) error {
	if s.createFn != nil {
		return s.createFn(ctx, device)
	}
	return nil
}
func (s *deviceRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*entities.Device, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, domainerrors.ErrNotFound
}
func (s *deviceRepoStub) GetBySecretHash(ctx context.Context, secretHash string) (*entities.Device, error) {
	if s.getBySecretHashFn != nil {
		return s.getBySecretHashFn(ctx, secretHash)
	}
	return nil, domainerrors.ErrNotFound
}
func (s *deviceRepoStub) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Device, error) {
	if s.listByUserFn != nil {
		return s.listByUserFn(ctx, userID)
	}
	return []*entities.Device{}, nil
}
func (s *deviceRepoStub) Update(context.Context, *entities.Device) error { return nil }
func (s *deviceRepoStub) Deactivate(ctx context.Context, id uuid.UUID) error {
	if s.deactivateFn != nil {
		return s.deactivateFn(ctx, id)
	}
	return nil
}

type webhookRepoStub struct {
	createFn          func(ctx context.Context, webhook *entities.Webhook) error
	getByPublicIDFn   func(ctx context.Context, publicID string) (*entities.Webhook, error)
	getByIDFn         func(ctx context.Context, id uuid.UUID) (*entities.Webhook, error)
	listByUserFn      func(ctx context.Context, userID uuid.UUID) ([]*entities.Webhook, error)
	incrementFn       func(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	replaceIdentityFn func(ctx context.Context, id uuid.UUID, newPublicID, newSecretEncrypted string) error
	deactivateFn      func(ctx context.Context, id uuid.UUID) error
}

func (s *webhookRepoStub) Create(ctx context.Context, webhook *entities.Webhook) error {
	if s.createFn != nil {
		return s.createFn(ctx, webhook)
	}
	return nil
}
func (s *webhookRepoStub) GetByPublicID(ctx context.Context, publicID string) (*entities.Webhook, error) {
	if s.getByPublicIDFn != nil {
		return s.getByPublicIDFn(ctx, publicID)
	}
	return nil, domainerrors.ErrNotFound
}
func (s *webhookRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*entities.Webhook, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, domainerrors.ErrNotFound
}
func (s *webhookRepoStub) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Webhook, error) {
	if s.listByUserFn != nil {
		return s.listByUserFn(ctx, userID)
	}
	return []*entities.Webhook{}, nil
}
func (s *webhookRepoStub) IncrementTriggerCount(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if s.incrementFn != nil {
		return s.incrementFn(ctx, id, at)
	}
	return true, nil
}
func (s *webhookRepoStub) ReplaceIdentity(ctx context.Context, id uuid.UUID, newPublicID, newSecretEncrypted string) error {
	if s.replaceIdentityFn != nil {
		return s.replaceIdentityFn(ctx, id, newPublicID, newSecretEncrypted)
	}
	return nil
}
func (s *webhookRepoStub) Deactivate(ctx context.Context, id uuid.UUID) error {
	if s.deactivateFn != nil {
		return s.deactivateFn(ctx, id)
	}
	return nil
}

type rotationRepoStub struct {
	createFn func(ctx context.Context, rotation *entities.WebhookRotation) error
}

func (s *rotationRepoStub) Create(ctx context.Context, rotation *entities.WebhookRotation) error {
	if s.createFn != nil {
		return s.createFn(ctx, rotation)
	}
	return nil
}
func (s *rotationRepoStub) ListByWebhook(context.Context, uuid.UUID) ([]*entities.WebhookRotation, error) {
	return []*entities.WebhookRotation{}, nil
}

type executionRepoStub struct {
	createFn func(ctx context.Context, execution *entities.WebhookExecution) error
}

func (s *executionRepoStub) Create(ctx context.Context, execution *entities.WebhookExecution) error {
	if s.createFn != nil {
		return s.createFn(ctx, execution)
	}
	return nil
}
func (s *executionRepoStub) ListByWebhook(context.Context, uuid.UUID, int) ([]*entities.WebhookExecution, error) {
	return []*entities.WebhookExecution{}, nil
}

type analyticsRepoStub struct{}

func (analyticsRepoStub) Upsert(context.Context, uuid.UUID, string, bool, int64) error { return nil }
func (analyticsRepoStub) ListByWebhook(context.Context, uuid.UUID, int) ([]*entities.AnalyticsDaily, error) {
	return []*entities.AnalyticsDaily{}, nil
}
func (analyticsRepoStub) GetByDate(context.Context, uuid.UUID, string) (*entities.AnalyticsDaily, error) {
	return nil, domainerrors.ErrNotFound
}

type auditRepoStub struct{}

func (auditRepoStub) Create(context.Context, *entities.AuditLogEntry) error { return nil }
func (auditRepoStub) ListByResource(context.Context, string, string, int) ([]*entities.AuditLogEntry, error) {
	return []*entities.AuditLogEntry{}, nil
}

type rateLimitRepoStub struct {
	incrementFn func(ctx context.Context, identifier string, windowStart time.Time, max int64) (int64, bool, error)
}

func (s *rateLimitRepoStub) Increment(ctx context.Context, identifier string, windowStart time.Time, max int64) (int64, bool, error) {
	if s.incrementFn != nil {
		return s.incrementFn(ctx, identifier, windowStart, max)
	}
	return 1, true, nil
}
func (s *rateLimitRepoStub) PurgeBefore(context.Context, time.Time) (int64, error) { return 0, nil }

type dispatcherStub struct {
	sendFn func(ctx context.Context, req *push.DispatchRequest) (*push.DispatchResult, error)
}

func (s *dispatcherStub) Send(ctx context.Context, req *push.DispatchRequest) (*push.DispatchResult, error) {
	if s.sendFn != nil {
		return s.sendFn(ctx, req)
	}
	return nil, errors.New("unused")
}
