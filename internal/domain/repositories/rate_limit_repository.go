package repositories

import (
	"context"
	"time"
)

// RateLimitRepository maintains fixed-window counters in the shared store.
// Increment must be atomic: the conditional bump and the cap check happen in
// one statement so concurrent edge requests cannot both slip under the limit.
type RateLimitRepository interface {
	// Increment bumps the counter for (identifier, windowStart) if it is
	// below max, inserting the row on first use. Returns the resulting count
	// and whether the request was admitted.
	Increment(ctx context.Context, identifier string, windowStart time.Time, max int64) (count int64, allowed bool, err error)
	// PurgeBefore removes windows that started before the cutoff.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
