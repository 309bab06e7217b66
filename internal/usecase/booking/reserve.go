package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bookora/booking-scheduler/internal/audit"
	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/models"
	"github.com/bookora/booking-scheduler/internal/timezone"
)

// ======================================================
// RESERVE
// ======================================================

type ReserveInput struct {
	ProviderSlug string

	Date        string // YYYY-MM-DD
	Time        string // HH:mm
	DurationMin int

	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	ServiceName string
	Notes       string
}

type ReserveOutput struct {
	Booking *models.Booking           `json:"booking"`
	Deposit *scheduling.DepositIntent `json:"deposit,omitempty"`
}

type Reserve struct {
	repo     scheduling.Repository
	policy   *scheduling.Policy
	gateway  scheduling.PaymentGateway
	gen      *scheduling.SlotGenerator
	resolver *scheduling.ConflictResolver
	audit    *audit.Dispatcher
	cache    AvailabilityInvalidator

	holdWindow time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewReserve(
	repo scheduling.Repository,
	policy *scheduling.Policy,
	gateway scheduling.PaymentGateway,
	auditDispatcher *audit.Dispatcher,
	cache AvailabilityInvalidator,
	holdWindow time.Duration,
	logger zerolog.Logger,
) *Reserve {
	return &Reserve{
		repo:       repo,
		policy:     policy,
		gateway:    gateway,
		gen:        scheduling.NewSlotGenerator(),
		resolver:   scheduling.NewConflictResolver(),
		audit:      auditDispatcher,
		cache:      cache,
		holdWindow: holdWindow,
		logger:     logger.With().Str("usecase", "reserve").Logger(),
		now:        time.Now,
	}
}

// Execute runs the reserve protocol: re-validate against current state,
// then commit atomically with respect to concurrent attempts for the
// same provider window. When a deposit intent cannot be created the
// reservation itself stands: the booking is returned alongside a
// GatewayError and the intent can be retried.
func (uc *Reserve) Execute(
	ctx context.Context,
	in ReserveInput,
) (*ReserveOutput, error) {

	provider, err := uc.repo.GetProviderBySlug(ctx, in.ProviderSlug)
	if err != nil {
		return nil, err
	}

	loc := timezone.Location(provider.Timezone)
	start, err := time.ParseInLocation("2006-01-02 15:04", in.Date+" "+in.Time, loc)
	if err != nil {
		return nil, err
	}

	constraints := uc.policy.Resolve(scheduling.Tier(provider.Plan))

	now := uc.now()
	if start.Before(minAdvanceCutoff(provider, now)) {
		return nil, &scheduling.SlotUnavailableError{Start: start, End: start}
	}

	slot, err := uc.validate(ctx, provider, constraints, in, start, now)
	if err != nil {
		return nil, err
	}
	end := slot.EndTime
	capacity := slot.RemainingCapacity

	var customerID *uint
	if in.CustomerEmail != "" {
		customer, err := uc.repo.GetOrCreateCustomer(
			ctx, provider.ID, in.CustomerName, in.CustomerEmail, in.CustomerPhone,
		)
		if err != nil {
			return nil, err
		}
		customerID = &customer.ID
	}

	depositRequired := provider.DepositAmount > 0

	b := &models.Booking{
		Reference:   uuid.NewString(),
		ProviderID:  provider.ID,
		CustomerID:  customerID,
		ServiceName: in.ServiceName,
		StartTime:   start,
		EndTime:     end,
		Status:      string(scheduling.InitialStatus(depositRequired)),
		Notes:       in.Notes,
	}
	if depositRequired {
		holdUntil := now.Add(uc.holdWindow)
		b.HoldExpiresAt = &holdUntil
	}

	dayStart, dayEnd, err := dayBounds(provider, in.Date)
	if err != nil {
		return nil, err
	}

	err = uc.repo.InsertBookingIfCapacityAvailable(
		ctx, b, capacity, constraints.MaxBookingsPerDay, dayStart, dayEnd,
	)
	if err != nil && !isValidationError(err) {
		// One retry with fresh validation for transient commit failures.
		uc.logger.Warn().Err(err).Msg("reservation commit failed, retrying once")

		slot, verr := uc.validate(ctx, provider, constraints, in, start, uc.now())
		if verr != nil {
			return nil, verr
		}
		capacity = slot.RemainingCapacity
		err = uc.repo.InsertBookingIfCapacityAvailable(
			ctx, b, capacity, constraints.MaxBookingsPerDay, dayStart, dayEnd,
		)
		if err != nil && !isValidationError(err) {
			return nil, &scheduling.SchedulingError{Err: err}
		}
	}
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID: provider.ID,
		Action:     "booking_reserved",
		Entity:     "booking",
		EntityID:   &b.ID,
		Metadata: map[string]any{
			"start":            start,
			"end":              end,
			"deposit_required": depositRequired,
		},
	})
	uc.invalidate(ctx, provider.ID, start)

	out := &ReserveOutput{Booking: b}
	if !depositRequired {
		return out, nil
	}

	// The provider lock is long released here: gateway latency must never
	// extend the reserve-or-reject critical section.
	intent, err := uc.gateway.CreateDepositIntent(ctx, b, provider.DepositAmount, provider.PaymentAccount)
	if err != nil {
		uc.logger.Warn().Err(err).Str("booking", b.Reference).
			Msg("deposit intent failed, booking kept pending")
		return out, err
	}

	if err := uc.repo.SetDepositReference(ctx, b.ID, intent.Reference); err != nil {
		uc.logger.Error().Err(err).Str("booking", b.Reference).
			Msg("could not persist deposit reference")
	}

	out.Deposit = intent
	return out, nil
}

// validate re-derives the day's slots from current state and returns the
// requested slot with its configured capacity.
func (uc *Reserve) validate(
	ctx context.Context,
	provider *models.Provider,
	constraints scheduling.PlanConstraints,
	in ReserveInput,
	start time.Time,
	now time.Time,
) (scheduling.Slot, error) {

	state, err := loadDayState(
		ctx, uc.repo, uc.gen, uc.resolver,
		provider, constraints, in.Date, in.DurationMin, now,
	)
	if err != nil {
		return scheduling.Slot{}, err
	}

	candidate, ok := findSlotAt(state.candidates, start, in.DurationMin)
	if !ok {
		return scheduling.Slot{}, &scheduling.SlotUnavailableError{
			Start: start,
			End:   start.Add(time.Duration(in.DurationMin) * time.Minute),
		}
	}

	if constraints.MaxBookingsPerDay.Reached(scheduling.ActiveCount(state.bookings)) {
		return scheduling.Slot{}, &scheduling.PlanLimitExceededError{
			MaxPerDay: constraints.MaxBookingsPerDay.Max(),
		}
	}

	if _, ok := findSlotAt(state.available, start, in.DurationMin); !ok {
		return scheduling.Slot{}, &scheduling.SlotUnavailableError{
			Start: start,
			End:   candidate.EndTime,
		}
	}

	return candidate, nil
}

func (uc *Reserve) invalidate(ctx context.Context, providerID uint, start time.Time) {
	if uc.cache == nil {
		return
	}
	date := start.Format("2006-01-02")
	if err := uc.cache.Invalidate(ctx, providerID, date); err != nil {
		uc.logger.Warn().Err(err).Msg("availability cache invalidation failed")
	}
}

// isValidationError reports whether the failure is a typed scheduling
// rejection rather than a transient persistence failure.
func isValidationError(err error) bool {
	var (
		slotErr *scheduling.SlotUnavailableError
		planErr *scheduling.PlanLimitExceededError
		durErr  *scheduling.UnsupportedDurationError
		nfErr   *scheduling.NotFoundError
	)
	return errors.As(err, &slotErr) ||
		errors.As(err, &planErr) ||
		errors.As(err, &durErr) ||
		errors.As(err, &nfErr)
}
