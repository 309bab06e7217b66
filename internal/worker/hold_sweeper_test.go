package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/usecase/booking"
)

// sweepRepo only answers the sweep call; the embedded interface stays nil
// because nothing else is reached.
type sweepRepo struct {
	scheduling.Repository
	calls atomic.Int64
}

func (r *sweepRepo) CancelExpiredHolds(_ context.Context, _ time.Time) (int64, error) {
	r.calls.Add(1)
	return 2, nil
}

func TestHoldSweeper(t *testing.T) {
	t.Run("RunNow executes one sweep", func(t *testing.T) {
		repo := &sweepRepo{}
		s := NewHoldSweeper(booking.NewExpireHolds(repo, zerolog.Nop()), time.Hour, zerolog.Nop())

		s.RunNow(context.Background())
		assert.Equal(t, int64(1), repo.calls.Load())
	})

	t.Run("Start sweeps on the ticker until stopped", func(t *testing.T) {
		repo := &sweepRepo{}
		s := NewHoldSweeper(booking.NewExpireHolds(repo, zerolog.Nop()), 10*time.Millisecond, zerolog.Nop())

		done := make(chan struct{})
		go func() {
			s.Start(context.Background())
			close(done)
		}()

		assert.Eventually(t, func() bool {
			return repo.calls.Load() >= 2
		}, time.Second, 5*time.Millisecond)

		s.Stop()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("sweeper did not stop")
		}
		assert.False(t, s.IsRunning())
	})

	t.Run("context cancellation stops the loop", func(t *testing.T) {
		repo := &sweepRepo{}
		s := NewHoldSweeper(booking.NewExpireHolds(repo, zerolog.Nop()), time.Hour, zerolog.Nop())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			s.Start(ctx)
			close(done)
		}()

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("sweeper did not stop on context cancel")
		}
	})
}
