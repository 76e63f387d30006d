package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"shortcut-relay.backend/internal/infrastructure/models"
)

// RateLimitRepository implements fixed-window counters on the relational
// store. The conditional UPDATE carries the cap check, so the admit decision
// and the increment are one atomic statement.
type RateLimitRepository struct {
	db *gorm.DB
}

// NewRateLimitRepository creates a new rate limit repository
func NewRateLimitRepository(db *gorm.DB) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

// Increment bumps the counter for (identifier, windowStart) if below max.
// First use inserts the row; the insert/update race resolves through the
// composite primary key with one retry.
func (r *RateLimitRepository) Increment(ctx context.Context, identifier string, windowStart time.Time, max int64) (int64, bool, error) {
	if max <= 0 {
		return 0, false, nil
	}

	for attempt := 0; attempt < 2; attempt++ {
		result := r.db.WithContext(ctx).Model(&models.RateLimitWindow{}).
			Where("identifier = ? AND window_start = ? AND request_count < ?", identifier, windowStart, max).
			UpdateColumn("request_count", gorm.Expr("request_count + 1"))
		if result.Error != nil {
			return 0, false, result.Error
		}
		if result.RowsAffected == 1 {
			var row models.RateLimitWindow
			err := r.db.WithContext(ctx).
				Where("identifier = ? AND window_start = ?", identifier, windowStart).
				First(&row).Error
			if err != nil {
				return 0, false, err
			}
			return row.RequestCount, true, nil
		}

		// No row was bumped: either the window is at its cap or it does not
		// exist yet.
		var row models.RateLimitWindow
		err := r.db.WithContext(ctx).
			Where("identifier = ? AND window_start = ?", identifier, windowStart).
			First(&row).Error
		if err == nil {
			return row.RequestCount, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, err
		}

		insert := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&models.RateLimitWindow{
			Identifier:   identifier,
			WindowStart:  windowStart,
			RequestCount: 1,
		})
		if insert.Error != nil {
			return 0, false, insert.Error
		}
		if insert.RowsAffected == 1 {
			return 1, true, nil
		}
		// A concurrent insert won; retry the conditional update once.
	}
	return 0, false, errors.New("rate limit increment did not converge")
}

// PurgeBefore removes stale windows that started before the cutoff
func (r *RateLimitRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("window_start < ?", cutoff).
		Delete(&models.RateLimitWindow{})
	return result.RowsAffected, result.Error
}
