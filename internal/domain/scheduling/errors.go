package scheduling

import (
	"fmt"
	"time"
)

// NotFoundError: the provider or booking itself does not exist. An empty
// availability is not an error.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Ref)
}

// UnsupportedDurationError: the requested duration is outside the plan's
// allowed set, regardless of otherwise-open hours.
type UnsupportedDurationError struct {
	DurationMin int
	Allowed     []int
}

func (e *UnsupportedDurationError) Error() string {
	return fmt.Sprintf("duration %dmin not allowed by plan (allowed: %v)", e.DurationMin, e.Allowed)
}

// SlotUnavailableError: the requested slot lost its capacity between
// listing and reserving. The caller must re-fetch slots; no substitution.
type SlotUnavailableError struct {
	Start time.Time
	End   time.Time
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("slot %s–%s is no longer available",
		e.Start.Format("2006-01-02 15:04"), e.End.Format("15:04"))
}

// PlanLimitExceededError: the daily booking cap was hit; the whole day is
// closed even if individual slots still have capacity.
type PlanLimitExceededError struct {
	MaxPerDay int
}

func (e *PlanLimitExceededError) Error() string {
	return fmt.Sprintf("daily booking limit of %d reached", e.MaxPerDay)
}

// DepositTimeoutError: the queried booking was cancelled by the hold-expiry
// sweep before its deposit completed.
type DepositTimeoutError struct {
	Reference string
}

func (e *DepositTimeoutError) Error() string {
	return fmt.Sprintf("booking %s was released: deposit hold expired", e.Reference)
}

// InvalidStateError: the requested transition is not legal from the
// booking's current status.
type InvalidStateError struct {
	Current Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("operation not allowed for booking in state %s", e.Current)
}

// GatewayError wraps a payment-provider failure. It is non-fatal to booking
// state: the booking stays PENDING_DEPOSIT and the intent can be retried.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// SchedulingError is the generic surface for a reservation commit that
// failed twice (initial attempt plus one re-validated retry).
type SchedulingError struct {
	Err error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("scheduling failed: %v", e.Err)
}

func (e *SchedulingError) Unwrap() error { return e.Err }
