package booking

import (
	"context"
	"time"

	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/models"
	"github.com/bookora/booking-scheduler/internal/timezone"
)

// AvailabilityInvalidator drops cached availability snapshots after a
// mutation. Implementations may be nil in wiring that runs without a
// cache (tests, workers).
type AvailabilityInvalidator interface {
	Invalidate(ctx context.Context, providerID uint, date string) error
}

// dayBounds parses a YYYY-MM-DD date in the provider's timezone and
// returns the half-open day interval.
func dayBounds(provider *models.Provider, dateStr string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(
		"2006-01-02",
		dateStr,
		timezone.Location(provider.Timezone),
	)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return day, day.AddDate(0, 0, 1), nil
}

// dayState is the snapshot every validation pass works from.
type dayState struct {
	day        time.Time
	dayEnd     time.Time
	recurring  *models.RecurringHours
	customs    []models.CustomTimeSlot
	bookings   []models.Booking
	candidates []scheduling.Slot
	available  []scheduling.Slot
}

// loadDayState fetches the current sources of truth for one provider-day
// and derives candidate and available slots from them.
func loadDayState(
	ctx context.Context,
	repo scheduling.Repository,
	gen *scheduling.SlotGenerator,
	resolver *scheduling.ConflictResolver,
	provider *models.Provider,
	constraints scheduling.PlanConstraints,
	dateStr string,
	durationMin int,
	now time.Time,
) (*dayState, error) {

	day, dayEnd, err := dayBounds(provider, dateStr)
	if err != nil {
		return nil, err
	}

	recurring, err := repo.GetRecurringHours(ctx, provider.ID, int(day.Weekday()))
	if err != nil {
		return nil, err
	}

	customs, err := repo.ListCustomSlots(ctx, provider.ID, day, dayEnd)
	if err != nil {
		return nil, err
	}

	blocked, err := repo.IsDateBlocked(ctx, provider.ID, day, dayEnd)
	if err != nil {
		return nil, err
	}

	candidates, err := gen.Generate(scheduling.GenerateInput{
		Date:        day,
		DurationMin: durationMin,
		Blocked:     blocked,
		Recurring:   recurring,
		CustomSlots: customs,
		Constraints: constraints,
	})
	if err != nil {
		return nil, err
	}

	bookings, err := repo.ListActiveBookings(ctx, provider.ID, day, dayEnd, now)
	if err != nil {
		return nil, err
	}

	return &dayState{
		day:        day,
		dayEnd:     dayEnd,
		recurring:  recurring,
		customs:    customs,
		bookings:   bookings,
		candidates: candidates,
		available:  resolver.Filter(candidates, bookings, constraints.MaxBookingsPerDay),
	}, nil
}

// findSlotAt locates the requested start in a slot list. A zero duration
// matches whatever length the day generated at that start.
func findSlotAt(slots []scheduling.Slot, start time.Time, durationMin int) (scheduling.Slot, bool) {
	for _, s := range slots {
		if s.StartTime.Equal(start) && (durationMin == 0 || s.DurationMin == durationMin) {
			return s, true
		}
	}
	return scheduling.Slot{}, false
}

// minAdvanceCutoff is the earliest start a new reservation may have.
func minAdvanceCutoff(provider *models.Provider, now time.Time) time.Time {
	if provider.MinAdvanceMinutes <= 0 {
		return now
	}
	return now.Add(time.Duration(provider.MinAdvanceMinutes) * time.Minute)
}
