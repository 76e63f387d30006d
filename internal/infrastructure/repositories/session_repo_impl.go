package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"shortcut-relay.backend/internal/domain/entities"
	domainerrors "shortcut-relay.backend/internal/domain/errors"
	"shortcut-relay.backend/internal/infrastructure/models"
)

// SessionRepository implements session data operations
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, session *entities.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	m := &models.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		TokenHash: session.TokenHash,
		ExpiresAt: session.ExpiresAt,
		IsActive:  session.IsActive,
		CreatedAt: session.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// GetByTokenHash finds an active session by token hash with its user
// preloaded. Expiry is the caller's concern (lazy expiry).
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*entities.Session, error) {
	var m models.Session
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("token_hash = ? AND is_active = ?", tokenHash, true).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}

	s := &entities.Session{
		ID:        m.ID,
		UserID:    m.UserID,
		TokenHash: m.TokenHash,
		ExpiresAt: m.ExpiresAt,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
	}
	if m.User.ID != uuid.Nil {
		s.User = userToEntity(&m.User)
	}
	return s, nil
}

// Deactivate invalidates a single session
func (r *SessionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// DeactivateAllForUser invalidates every session of a user (logout
// everywhere, password change).
func (r *SessionRepository) DeactivateAllForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false).Error
}
