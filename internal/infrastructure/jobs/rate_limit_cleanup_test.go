package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type rateLimitPurgerStub struct {
	purged     int64
	purgeErr   error
	calls      int
	lastCutoff time.Time
}

func (s *rateLimitPurgerStub) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.calls++
	s.lastCutoff = cutoff
	return s.purged, s.purgeErr
}

func TestPurgeStaleWindows_UsesRetentionCutoff(t *testing.T) {
	repo := &rateLimitPurgerStub{purged: 3}
	job := NewRateLimitCleanupJob(repo, time.Minute, 10*time.Minute)

	before := time.Now().UTC().Add(-10 * time.Minute)
	job.purgeStaleWindows(context.Background())
	after := time.Now().UTC().Add(-10 * time.Minute)

	require.Equal(t, 1, repo.calls)
	require.False(t, repo.lastCutoff.Before(before))
	require.False(t, repo.lastCutoff.After(after))
}

func TestPurgeStaleWindows_ErrorDoesNotPanic(t *testing.T) {
	repo := &rateLimitPurgerStub{purgeErr: errors.New("db down")}
	job := NewRateLimitCleanupJob(repo, time.Minute, time.Minute)

	job.purgeStaleWindows(context.Background())
	require.Equal(t, 1, repo.calls)
}

func TestNewRateLimitCleanupJob_Defaults(t *testing.T) {
	job := NewRateLimitCleanupJob(&rateLimitPurgerStub{}, 0, 0)
	require.Equal(t, 5*time.Minute, job.interval)
	require.Equal(t, 5*time.Minute, job.retention)
}

func TestStartStop_StopsByContext(t *testing.T) {
	job := NewRateLimitCleanupJob(&rateLimitPurgerStub{}, time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("job did not stop on context cancel")
	}
}

func TestStartStop_StopsByStopChannel(t *testing.T) {
	job := NewRateLimitCleanupJob(&rateLimitPurgerStub{}, time.Millisecond, time.Minute)

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()
	job.Stop()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("job did not stop on Stop()")
	}
}
