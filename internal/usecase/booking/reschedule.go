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
// RESCHEDULE
// ======================================================

type RescheduleInput struct {
	ProviderID uint
	BookingID  uint

	Date        string // YYYY-MM-DD
	Time        string // HH:mm
	DurationMin int
}

type Reschedule struct {
	repo     scheduling.Repository
	policy   *scheduling.Policy
	gen      *scheduling.SlotGenerator
	resolver *scheduling.ConflictResolver
	audit    *audit.Dispatcher
	cache    AvailabilityInvalidator

	logger zerolog.Logger
	now    func() time.Time
}

func NewReschedule(
	repo scheduling.Repository,
	policy *scheduling.Policy,
	auditDispatcher *audit.Dispatcher,
	cache AvailabilityInvalidator,
	logger zerolog.Logger,
) *Reschedule {
	return &Reschedule{
		repo:     repo,
		policy:   policy,
		gen:      scheduling.NewSlotGenerator(),
		resolver: scheduling.NewConflictResolver(),
		audit:    auditDispatcher,
		cache:    cache,
		logger:   logger.With().Str("usecase", "reschedule").Logger(),
		now:      time.Now,
	}
}

// Execute moves a booking to a new window under the same capacity rules a
// fresh reservation obeys. The booking's own occupancy is ignored so an
// appointment can shift within its current window or to an adjacent one.
// Status and deposit state survive the move.
func (uc *Reschedule) Execute(
	ctx context.Context,
	in RescheduleInput,
) (*models.Booking, error) {

	b, err := uc.repo.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if b.ProviderID != in.ProviderID {
		return nil, &scheduling.NotFoundError{
			Entity: "booking",
			Ref:    strconv.FormatUint(uint64(in.BookingID), 10),
		}
	}
	if !scheduling.CanReschedule(scheduling.Status(b.Status)) {
		return nil, &scheduling.InvalidStateError{Current: scheduling.Status(b.Status)}
	}

	provider, err := uc.repo.GetProviderByID(ctx, in.ProviderID)
	if err != nil {
		return nil, err
	}

	loc := timezone.Location(provider.Timezone)
	newStart, err := time.ParseInLocation("2006-01-02 15:04", in.Date+" "+in.Time, loc)
	if err != nil {
		return nil, err
	}

	constraints := uc.policy.Resolve(scheduling.Tier(provider.Plan))
	now := uc.now()

	state, err := loadDayState(
		ctx, uc.repo, uc.gen, uc.resolver,
		provider, constraints, in.Date, in.DurationMin, now,
	)
	if err != nil {
		return nil, err
	}

	candidate, ok := findSlotAt(state.candidates, newStart, in.DurationMin)
	if !ok {
		return nil, &scheduling.SlotUnavailableError{Start: newStart, End: newStart}
	}

	// Recompute availability with the booking's own row removed, so a
	// move inside its current window is not blocked by itself.
	others := make([]models.Booking, 0, len(state.bookings))
	for _, existing := range state.bookings {
		if existing.ID != b.ID {
			others = append(others, existing)
		}
	}
	free := uc.resolver.Filter(state.candidates, others, constraints.MaxBookingsPerDay)
	if _, ok := findSlotAt(free, newStart, in.DurationMin); !ok {
		return nil, &scheduling.SlotUnavailableError{Start: newStart, End: candidate.EndTime}
	}

	moved, err := uc.repo.RescheduleBookingIfAvailable(
		ctx, b.ID,
		candidate.StartTime, candidate.EndTime,
		candidate.RemainingCapacity,
		constraints.MaxBookingsPerDay,
		state.day, state.dayEnd,
	)
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID: provider.ID,
		Action:     "booking_rescheduled",
		Entity:     "booking",
		EntityID:   &b.ID,
		Metadata: map[string]any{
			"from": b.StartTime,
			"to":   candidate.StartTime,
		},
	})

	if uc.cache != nil {
		oldDate := b.StartTime.In(loc).Format("2006-01-02")
		if err := uc.cache.Invalidate(ctx, provider.ID, oldDate); err != nil {
			uc.logger.Warn().Err(err).Msg("availability cache invalidation failed")
		}
		if in.Date != oldDate {
			if err := uc.cache.Invalidate(ctx, provider.ID, in.Date); err != nil {
				uc.logger.Warn().Err(err).Msg("availability cache invalidation failed")
			}
		}
	}

	return moved, nil
}
