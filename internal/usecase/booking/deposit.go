package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookora/booking-scheduler/internal/audit"
	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/models"
	"github.com/bookora/booking-scheduler/internal/timezone"
)

// ======================================================
// DEPOSIT CALLBACKS
// ======================================================

// DepositCallbacks reacts to payment notifications. Notifications are
// at-least-once: every entry point is idempotent.
type DepositCallbacks struct {
	repo    scheduling.Repository
	gateway scheduling.PaymentGateway
	audit   *audit.Dispatcher
	cache   AvailabilityInvalidator

	logger zerolog.Logger
	now    func() time.Time
}

func NewDepositCallbacks(
	repo scheduling.Repository,
	gateway scheduling.PaymentGateway,
	auditDispatcher *audit.Dispatcher,
	cache AvailabilityInvalidator,
	logger zerolog.Logger,
) *DepositCallbacks {
	return &DepositCallbacks{
		repo:    repo,
		gateway: gateway,
		audit:   auditDispatcher,
		cache:   cache,
		logger:  logger.With().Str("usecase", "deposit").Logger(),
		now:     time.Now,
	}
}

// OnDepositSucceeded confirms the booking the deposit belongs to. A
// deposit landing after the hold was reclaimed reports DepositTimeoutError
// so the caller can trigger a refund flow.
func (uc *DepositCallbacks) OnDepositSucceeded(
	ctx context.Context,
	reference string,
) (*models.Booking, error) {

	b, err := uc.repo.GetBookingByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	ok, err := uc.repo.ConfirmBookingIfPending(ctx, b.ID, uc.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		// Not pending anymore: tell replays apart from real conflicts.
		current, rerr := uc.repo.GetBooking(ctx, b.ID)
		if rerr != nil {
			return nil, rerr
		}
		switch scheduling.Status(current.Status) {
		case scheduling.StatusConfirmed:
			return current, nil
		case scheduling.StatusCancelled:
			if current.CancelReason == scheduling.ReasonDepositTimeout {
				return current, &scheduling.DepositTimeoutError{Reference: reference}
			}
			return current, &scheduling.InvalidStateError{Current: scheduling.StatusCancelled}
		default:
			return current, &scheduling.InvalidStateError{Current: scheduling.Status(current.Status)}
		}
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID: b.ProviderID,
		Action:     "deposit_received",
		Entity:     "booking",
		EntityID:   &b.ID,
		Metadata:   map[string]any{"reference": reference},
	})
	uc.invalidateDay(ctx, b)

	return uc.repo.GetBooking(ctx, b.ID)
}

// OnDepositFailed records the failure. The booking stays PENDING_DEPOSIT;
// the customer can retry until the hold window runs out.
func (uc *DepositCallbacks) OnDepositFailed(
	ctx context.Context,
	reference string,
	detail string,
) error {

	b, err := uc.repo.GetBookingByReference(ctx, reference)
	if err != nil {
		return err
	}

	uc.logger.Info().
		Str("booking", b.Reference).
		Str("detail", detail).
		Msg("deposit attempt failed, hold kept")

	uc.audit.Dispatch(audit.Event{
		ProviderID: b.ProviderID,
		Action:     "deposit_failed",
		Entity:     "booking",
		EntityID:   &b.ID,
		Metadata:   map[string]any{"reference": reference, "detail": detail},
	})
	return nil
}

// RetryDeposit requests a fresh deposit intent for a still-pending
// booking, typically after the first intent creation failed.
func (uc *DepositCallbacks) RetryDeposit(
	ctx context.Context,
	reference string,
) (*scheduling.DepositIntent, error) {

	b, err := uc.repo.GetBookingByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if scheduling.Status(b.Status) != scheduling.StatusPendingDeposit {
		return nil, &scheduling.InvalidStateError{Current: scheduling.Status(b.Status)}
	}

	provider, err := uc.repo.GetProviderByID(ctx, b.ProviderID)
	if err != nil {
		return nil, err
	}

	intent, err := uc.gateway.CreateDepositIntent(ctx, b, provider.DepositAmount, provider.PaymentAccount)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.SetDepositReference(ctx, b.ID, intent.Reference); err != nil {
		uc.logger.Error().Err(err).Str("booking", b.Reference).
			Msg("could not persist deposit reference")
	}
	return intent, nil
}

func (uc *DepositCallbacks) invalidateDay(ctx context.Context, b *models.Booking) {
	if uc.cache == nil {
		return
	}
	provider, err := uc.repo.GetProviderByID(ctx, b.ProviderID)
	if err != nil {
		return
	}
	date := b.StartTime.In(timezone.Location(provider.Timezone)).Format("2006-01-02")
	if err := uc.cache.Invalidate(ctx, b.ProviderID, date); err != nil {
		uc.logger.Warn().Err(err).Msg("availability cache invalidation failed")
	}
}
