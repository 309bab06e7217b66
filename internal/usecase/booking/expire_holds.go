package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
)

// ======================================================
// EXPIRE HOLDS
// ======================================================

// ExpireHolds releases deposit holds that ran out their window. It is the
// periodic half of hold expiry; reads apply the same cutoff lazily so
// capacity is correct between runs.
type ExpireHolds struct {
	repo   scheduling.Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewExpireHolds(repo scheduling.Repository, logger zerolog.Logger) *ExpireHolds {
	return &ExpireHolds{
		repo:   repo,
		logger: logger.With().Str("usecase", "expire_holds").Logger(),
		now:    time.Now,
	}
}

func (uc *ExpireHolds) Execute(ctx context.Context) (int64, error) {
	released, err := uc.repo.CancelExpiredHolds(ctx, uc.now())
	if err != nil {
		return 0, err
	}
	if released > 0 {
		uc.logger.Info().Int64("released", released).Msg("expired deposit holds released")
	}
	return released, nil
}
