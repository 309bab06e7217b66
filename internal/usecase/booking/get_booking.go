package booking

import (
	"context"
	"time"

	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/models"
)

// ======================================================
// GET BOOKING
// ======================================================

type GetBooking struct {
	repo scheduling.Repository
	now  func() time.Time
}

func NewGetBooking(repo scheduling.Repository) *GetBooking {
	return &GetBooking{repo: repo, now: time.Now}
}

// ByReference resolves a booking through its public reference. A pending
// booking whose deposit hold has lapsed is reclaimed on the spot rather
// than waiting for the next sweep; the caller gets the cancelled booking
// together with a DepositTimeoutError so it can distinguish "released"
// from "never existed".
func (uc *GetBooking) ByReference(
	ctx context.Context,
	reference string,
) (*models.Booking, error) {

	b, err := uc.repo.GetBookingByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	if scheduling.Status(b.Status) == scheduling.StatusPendingDeposit &&
		b.HoldExpiresAt != nil && b.HoldExpiresAt.Before(now) {

		// The sweep's conditional update only touches still-pending rows
		// past their hold window, so a concurrent confirm wins cleanly.
		if _, serr := uc.repo.CancelExpiredHolds(ctx, now); serr != nil {
			return nil, serr
		}
		refreshed, rerr := uc.repo.GetBookingByReference(ctx, reference)
		if rerr != nil {
			return nil, rerr
		}
		b = refreshed
	}

	if scheduling.Status(b.Status) == scheduling.StatusCancelled &&
		b.CancelReason == scheduling.ReasonDepositTimeout {
		return b, &scheduling.DepositTimeoutError{Reference: b.Reference}
	}

	return b, nil
}
