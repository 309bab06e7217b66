package booking

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookora/booking-scheduler/internal/audit"
	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/models"
	"github.com/bookora/booking-scheduler/internal/timezone"
)

// ======================================================
// CANCEL
// ======================================================

type Cancel struct {
	repo  scheduling.Repository
	audit *audit.Dispatcher
	cache AvailabilityInvalidator

	logger zerolog.Logger
	now    func() time.Time
}

func NewCancel(
	repo scheduling.Repository,
	auditDispatcher *audit.Dispatcher,
	cache AvailabilityInvalidator,
	logger zerolog.Logger,
) *Cancel {
	return &Cancel{
		repo:   repo,
		audit:  auditDispatcher,
		cache:  cache,
		logger: logger.With().Str("usecase", "cancel").Logger(),
		now:    time.Now,
	}
}

// ByProvider cancels one of the provider's own bookings. The slot's
// capacity is released immediately.
func (uc *Cancel) ByProvider(
	ctx context.Context,
	providerID uint,
	bookingID uint,
) (*models.Booking, error) {

	b, err := uc.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ProviderID != providerID {
		return nil, &scheduling.NotFoundError{
			Entity: "booking",
			Ref:    strconv.FormatUint(uint64(bookingID), 10),
		}
	}

	return uc.cancel(ctx, b, scheduling.ReasonProvider, nil)
}

// ByReference cancels a booking through its public reference, the handle
// the customer holds.
func (uc *Cancel) ByReference(
	ctx context.Context,
	reference string,
) (*models.Booking, error) {

	b, err := uc.repo.GetBookingByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	return uc.cancel(ctx, b, scheduling.ReasonCustomer, nil)
}

func (uc *Cancel) cancel(
	ctx context.Context,
	b *models.Booking,
	reason string,
	actorID *uint,
) (*models.Booking, error) {

	cancelled, err := uc.repo.CancelBooking(ctx, b.ID, reason, uc.now())
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID: b.ProviderID,
		ActorID:    actorID,
		Action:     "booking_cancelled",
		Entity:     "booking",
		EntityID:   &b.ID,
		Metadata:   map[string]any{"reason": reason},
	})

	if uc.cache != nil {
		provider, perr := uc.repo.GetProviderByID(ctx, b.ProviderID)
		if perr == nil {
			loc := timezone.Location(provider.Timezone)
			date := b.StartTime.In(loc).Format("2006-01-02")
			if cerr := uc.cache.Invalidate(ctx, b.ProviderID, date); cerr != nil {
				uc.logger.Warn().Err(cerr).Msg("availability cache invalidation failed")
			}
		}
	}

	return cancelled, nil
}
