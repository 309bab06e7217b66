package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
)

// FromDomain translates a scheduling error into its HTTP shape.
// Unrecognized errors become an opaque 500.
func FromDomain(c *gin.Context, err error) {
	var (
		nfErr      *scheduling.NotFoundError
		durErr     *scheduling.UnsupportedDurationError
		slotErr    *scheduling.SlotUnavailableError
		planErr    *scheduling.PlanLimitExceededError
		timeoutErr *scheduling.DepositTimeoutError
		stateErr   *scheduling.InvalidStateError
		gwErr      *scheduling.GatewayError
		schedErr   *scheduling.SchedulingError
	)

	switch {
	case errors.As(err, &nfErr):
		NotFound(c, "not_found", nfErr.Error())

	case errors.As(err, &durErr):
		UnprocessableEntity(c, "duration_not_allowed", durErr.Error())

	case errors.As(err, &slotErr):
		Conflict(c, "slot_unavailable", slotErr.Error())

	case errors.As(err, &planErr):
		Conflict(c, "daily_limit_reached", planErr.Error())

	case errors.As(err, &timeoutErr):
		Gone(c, "deposit_hold_expired", timeoutErr.Error())

	case errors.As(err, &stateErr):
		Conflict(c, "invalid_state", stateErr.Error())

	case errors.As(err, &gwErr):
		Write(c, http.StatusBadGateway, "payment_gateway_error", "Deposit could not be initiated. Try again.")

	case errors.As(err, &schedErr):
		Conflict(c, "scheduling_failed", "Reservation could not be committed. Re-fetch availability.")

	default:
		Internal(c, "internal_error", "Something went wrong.")
	}
}
