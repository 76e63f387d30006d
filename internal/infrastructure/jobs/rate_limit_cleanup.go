package jobs

import (
	"context"
	"log"
	"time"
)

type rateLimitPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RateLimitCleanupJob removes stale fixed-window counter rows. Windows older
// than the retention horizon can never admit or deny another request.
type RateLimitCleanupJob struct {
	repo      rateLimitPurger
	interval  time.Duration
	retention time.Duration
	stop      chan struct{}
}

func NewRateLimitCleanupJob(repo rateLimitPurger, interval, retention time.Duration) *RateLimitCleanupJob {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if retention <= 0 {
		retention = 5 * time.Minute
	}
	return &RateLimitCleanupJob{
		repo:      repo,
		interval:  interval,
		retention: retention,
		stop:      make(chan struct{}),
	}
}

func (j *RateLimitCleanupJob) Start(ctx context.Context) {
	log.Println("🕐 Starting rate limit window cleanup job...")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Rate limit cleanup job stopped (context cancelled)")
			return
		case <-j.stop:
			log.Println("⏹️ Rate limit cleanup job stopped")
			return
		case <-ticker.C:
			j.purgeStaleWindows(ctx)
		}
	}
}

func (j *RateLimitCleanupJob) Stop() {
	close(j.stop)
}

func (j *RateLimitCleanupJob) purgeStaleWindows(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-j.retention)
	purged, err := j.repo.PurgeBefore(ctx, cutoff)
	if err != nil {
		log.Printf("❌ Error purging stale rate limit windows: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("✅ Purged %d stale rate limit windows", purged)
	}
}
