package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"shortcut-relay.backend/internal/domain/entities"
	"shortcut-relay.backend/internal/domain/repositories"
)

// IdentityScope builds the limiter identifier for an authenticated caller.
func IdentityScope(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// WebhookScope builds the limiter identifier for anonymous callers, shared by
// everyone triggering the same webhook.
func WebhookScope(publicID string) string {
	return "webhook:" + publicID
}

// RateLimiter enforces fixed-window limits through the shared store. The
// admit decision happens inside the store's atomic conditional increment, so
// concurrent callers across nodes cannot both slip under the cap.
type RateLimiter struct {
	repo   repositories.RateLimitRepository
	window time.Duration
	clock  func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(repo repositories.RateLimitRepository, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		repo:   repo,
		window: window,
		clock:  time.Now,
	}
}

// Check admits or denies one request for the identifier. Remaining decreases
// strictly within a window; RetryAfter is the time until the next window
// opens and is set only on denial.
func (u *RateLimiter) Check(ctx context.Context, identifier string, max int64) (*entities.RateLimitResult, error) {
	now := u.clock().UTC()
	windowStart := now.Truncate(u.window)

	count, allowed, err := u.repo.Increment(ctx, identifier, windowStart, max)
	if err != nil {
		return nil, err
	}

	result := &entities.RateLimitResult{Allowed: allowed}
	if allowed {
		result.Remaining = max - count
		if result.Remaining < 0 {
			result.Remaining = 0
		}
	} else {
		result.RetryAfter = windowStart.Add(u.window).Sub(now)
	}
	return result, nil
}

// PurgeStale removes windows outside the retention horizon. The cleanup job
// calls this; correctness never depends on it.
func (u *RateLimiter) PurgeStale(ctx context.Context, retention time.Duration) (int64, error) {
	return u.repo.PurgeBefore(ctx, u.clock().UTC().Add(-retention))
}
