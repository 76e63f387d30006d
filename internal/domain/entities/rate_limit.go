package entities

import "time"

// RateLimitWindow is one fixed-window counter row, keyed by an opaque
// identifier plus the floor-aligned window start. Rows are ephemeral and
// purged once the window is stale.
type RateLimitWindow struct {
	Identifier   string    `json:"identifier"`
	WindowStart  time.Time `json:"windowStart"`
	RequestCount int64     `json:"requestCount"`
}

// RateLimitResult is the outcome of one limiter check.
type RateLimitResult struct {
	Allowed    bool          `json:"allowed"`
	Remaining  int64         `json:"remaining"`
	RetryAfter time.Duration `json:"retryAfter"`
}
