package usecases

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"shortcut-relay.backend/internal/domain/entities"
	domainerrors "shortcut-relay.backend/internal/domain/errors"
	"shortcut-relay.backend/internal/domain/repositories"
	"shortcut-relay.backend/pkg/crypto"
	"shortcut-relay.backend/pkg/jwt"
	"shortcut-relay.backend/pkg/logger"
	"shortcut-relay.backend/pkg/metrics"
)

// AuthOutcome is the tagged result of credential resolution. Kind is always
// set; User and ApiKey are populated only for their respective kinds, so
// consumers branch on Kind instead of probing nullable fields.
type AuthOutcome struct {
	Kind   entities.AuthKind
	User   *entities.User
	ApiKey *entities.ApiKey
}

// Anonymous is the outcome for requests carrying no usable credential.
func Anonymous() *AuthOutcome {
	return &AuthOutcome{Kind: entities.AuthKindAnonymous}
}

// Authenticated reports whether an identity was resolved.
func (o *AuthOutcome) Authenticated() bool {
	return o.Kind != entities.AuthKindAnonymous
}

// Credentials is the raw credential material extracted from a request.
type Credentials struct {
	BearerToken string
	APIKey      string
	ClientIP    string
}

// CredentialResolver turns request credentials into an AuthOutcome. An API
// key wins when both credential types are present; a bearer token is tried as
// a signed access token first and as an opaque session token second. Missing
// or unrecognized credentials resolve to Anonymous rather than an error, so
// callers decide whether authentication is mandatory.
type CredentialResolver struct {
	userRepo    repositories.UserRepository
	sessionRepo repositories.SessionRepository
	apiKeyRepo  repositories.ApiKeyRepository
	jwtService  *jwt.JWTService
	clock       func() time.Time
}

// NewCredentialResolver creates a new credential resolver
func NewCredentialResolver(
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
	apiKeyRepo repositories.ApiKeyRepository,
	jwtService *jwt.JWTService,
) *CredentialResolver {
	return &CredentialResolver{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		apiKeyRepo:  apiKeyRepo,
		jwtService:  jwtService,
		clock:       time.Now,
	}
}

// Resolve resolves one request's credentials. requiredScope applies to the
// API-key path only; an authenticated key without the scope is a Forbidden
// error, not an anonymous fallback, so a scoped key cannot silently degrade.
func (u *CredentialResolver) Resolve(ctx context.Context, creds Credentials, requiredScope string) (*AuthOutcome, error) {
	if creds.APIKey != "" {
		return u.resolveAPIKey(ctx, creds, requiredScope)
	}
	if creds.BearerToken != "" {
		return u.resolveBearer(ctx, creds.BearerToken)
	}
	return Anonymous(), nil
}

func (u *CredentialResolver) resolveAPIKey(ctx context.Context, creds Credentials, requiredScope string) (*AuthOutcome, error) {
	key, err := u.apiKeyRepo.FindByKeyHash(ctx, crypto.SHA256Hex(creds.APIKey))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("api_key", "unknown").Inc()
			return Anonymous(), nil
		}
		return nil, err
	}

	now := u.clock()
	if key.ExpiresAt.Valid && now.After(key.ExpiresAt.Time) {
		metrics.AuthAttemptsTotal.WithLabelValues("api_key", "expired").Inc()
		return Anonymous(), nil
	}
	if key.User == nil || !key.User.IsActive {
		metrics.AuthAttemptsTotal.WithLabelValues("api_key", "inactive_user").Inc()
		return Anonymous(), nil
	}
	if !key.HasScope(requiredScope) {
		metrics.AuthAttemptsTotal.WithLabelValues("api_key", "forbidden").Inc()
		return nil, domainerrors.Forbidden("api key lacks required permission")
	}

	if err := u.apiKeyRepo.TouchLastUsed(ctx, key.ID, now, creds.ClientIP); err != nil {
		logger.Warn(ctx, "api key last-used update failed", zap.Error(err))
	}

	metrics.AuthAttemptsTotal.WithLabelValues("api_key", "ok").Inc()
	return &AuthOutcome{Kind: entities.AuthKindApiKey, User: key.User, ApiKey: key}, nil
}

func (u *CredentialResolver) resolveBearer(ctx context.Context, token string) (*AuthOutcome, error) {
	// Short-lived signed access token first.
	if claims, err := u.jwtService.ValidateToken(token); err == nil {
		user, lookupErr := u.userRepo.GetByID(ctx, claims.UserID)
		if lookupErr != nil {
			if errors.Is(lookupErr, domainerrors.ErrNotFound) {
				metrics.AuthAttemptsTotal.WithLabelValues("access_token", "inactive_user").Inc()
				return Anonymous(), nil
			}
			return nil, lookupErr
		}
		metrics.AuthAttemptsTotal.WithLabelValues("access_token", "ok").Inc()
		return &AuthOutcome{Kind: entities.AuthKindSession, User: user}, nil
	}

	// Opaque session token second: lookup by hash, lazy expiry.
	session, err := u.sessionRepo.GetByTokenHash(ctx, crypto.SHA256Hex(token))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			metrics.AuthAttemptsTotal.WithLabelValues("session", "unknown").Inc()
			return Anonymous(), nil
		}
		return nil, err
	}

	if session.Expired(u.clock()) {
		if err := u.sessionRepo.Deactivate(ctx, session.ID); err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
			logger.Warn(ctx, "expired session deactivation failed", zap.Error(err))
		}
		metrics.AuthAttemptsTotal.WithLabelValues("session", "expired").Inc()
		return Anonymous(), nil
	}
	if session.User == nil || !session.User.IsActive {
		metrics.AuthAttemptsTotal.WithLabelValues("session", "inactive_user").Inc()
		return Anonymous(), nil
	}

	metrics.AuthAttemptsTotal.WithLabelValues("session", "ok").Inc()
	return &AuthOutcome{Kind: entities.AuthKindSession, User: session.User}, nil
}
