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
	"shortcut-relay.backend/pkg/jwt"
)

// sessionTokenBytes gives 256 bits of entropy for opaque session tokens.
const sessionTokenBytes = 32

// AuthUsecase handles registration, login and session lifecycle
type AuthUsecase struct {
	userRepo      repositories.UserRepository
	sessionRepo   repositories.SessionRepository
	recorder      *ExecutionRecorder
	jwtService    *jwt.JWTService
	sessionExpiry time.Duration
	clock         func() time.Time
}

// NewAuthUsecase creates a new auth usecase
func NewAuthUsecase(
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
	recorder *ExecutionRecorder,
	jwtService *jwt.JWTService,
	sessionExpiry time.Duration,
) *AuthUsecase {
	return &AuthUsecase{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		recorder:      recorder,
		jwtService:    jwtService,
		sessionExpiry: sessionExpiry,
		clock:         time.Now,
	}
}

// Register creates a new account
func (u *AuthUsecase) Register(ctx context.Context, input *entities.RegisterInput) (*entities.User, error) {
	_, err := u.userRepo.GetByEmail(ctx, input.Email)
	if err == nil {
		return nil, domainerrors.Conflict("email already registered")
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := u.clock().UTC()
	user := &entities.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a user and opens a session. The raw session token is
// returned once; only its hash is stored.
func (u *AuthUsecase) Login(ctx context.Context, input *entities.LoginInput, ip, userAgent string) (*entities.LoginResponse, error) {
	user, err := u.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.Unauthorized("invalid email or password")
		}
		return nil, err
	}

	ok, err := crypto.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainerrors.Unauthorized("invalid email or password")
	}

	accessToken, err := u.jwtService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	sessionToken, err := crypto.RandomID(sessionTokenBytes)
	if err != nil {
		return nil, err
	}

	now := u.clock().UTC()
	session := &entities.Session{
		UserID:    user.ID,
		TokenHash: crypto.SHA256Hex(sessionToken),
		ExpiresAt: now.Add(u.sessionExpiry),
		IsActive:  true,
		CreatedAt: now,
	}
	if err := u.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	u.recorder.Audit(ctx, &entities.AuditLogEntry{
		UserID:       uuid.NullUUID{UUID: user.ID, Valid: true},
		Action:       entities.AuditActionUserLogin,
		ResourceType: "user",
		ResourceID:   user.ID.String(),
		IP:           ip,
		UserAgent:    userAgent,
		CreatedAt:    now,
	})

	return &entities.LoginResponse{
		User:         user,
		AccessToken:  accessToken,
		SessionToken: sessionToken,
	}, nil
}

// Logout invalidates the presented session token
func (u *AuthUsecase) Logout(ctx context.Context, rawSessionToken, ip string) error {
	session, err := u.sessionRepo.GetByTokenHash(ctx, crypto.SHA256Hex(rawSessionToken))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			// Already gone; logout is idempotent.
			return nil
		}
		return err
	}

	if err := u.sessionRepo.Deactivate(ctx, session.ID); err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return err
	}

	u.recorder.Audit(ctx, &entities.AuditLogEntry{
		UserID:       uuid.NullUUID{UUID: session.UserID, Valid: true},
		Action:       entities.AuditActionUserLogout,
		ResourceType: "user",
		ResourceID:   session.UserID.String(),
		IP:           ip,
		CreatedAt:    u.clock().UTC(),
	})
	return nil
}

// Me returns the authenticated user's profile
func (u *AuthUsecase) Me(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password and invalidates every open session,
// forcing re-login everywhere.
func (u *AuthUsecase) ChangePassword(ctx context.Context, userID uuid.UUID, input *entities.ChangePasswordInput, ip string) error {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("user not found")
		}
		return err
	}

	ok, err := crypto.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.Unauthorized("current password is incorrect")
	}

	newHash, err := crypto.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	if err := u.userRepo.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		return err
	}
	if err := u.sessionRepo.DeactivateAllForUser(ctx, userID); err != nil {
		return err
	}

	u.recorder.Audit(ctx, &entities.AuditLogEntry{
		UserID:       uuid.NullUUID{UUID: userID, Valid: true},
		Action:       entities.AuditActionPasswordChanged,
		ResourceType: "user",
		ResourceID:   userID.String(),
		IP:           ip,
		CreatedAt:    u.clock().UTC(),
	})
	return nil
}
