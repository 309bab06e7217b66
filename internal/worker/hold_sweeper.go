package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookora/booking-scheduler/internal/usecase/booking"
)

// HoldSweeper periodically releases expired deposit holds so their slots
// return to the public availability.
type HoldSweeper struct {
	expire   *booking.ExpireHolds
	interval time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func NewHoldSweeper(
	expire *booking.ExpireHolds,
	interval time.Duration,
	logger zerolog.Logger,
) *HoldSweeper {
	return &HoldSweeper{
		expire:   expire,
		interval: interval,
		logger:   logger.With().Str("worker", "hold_sweeper").Logger(),
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is cancelled.
func (s *HoldSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info().Dur("interval", s.interval).Msg("hold sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("hold sweeper stopped by context")
			return
		case <-s.stopCh:
			s.logger.Info().Msg("hold sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *HoldSweeper) Stop() {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.mu.Unlock()
}

// RunNow forces one immediate sweep.
func (s *HoldSweeper) RunNow(ctx context.Context) {
	s.sweep(ctx)
}

func (s *HoldSweeper) sweep(ctx context.Context) {
	if _, err := s.expire.Execute(ctx); err != nil {
		s.logger.Error().Err(err).Msg("hold sweep failed")
	}
}

func (s *HoldSweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
