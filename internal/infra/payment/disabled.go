package payment

import (
	"context"
	"errors"

	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/models"
)

// DisabledGateway stands in when no payment credentials are configured.
// Deposit-free providers never reach it; providers that require deposits
// get a gateway error and the booking is kept pending for a retry once
// credentials exist.
type DisabledGateway struct{}

func (DisabledGateway) CreateDepositIntent(
	_ context.Context,
	_ *models.Booking,
	_ float64,
	_ string,
) (*scheduling.DepositIntent, error) {
	return nil, &scheduling.GatewayError{
		Op:  "create_deposit_intent",
		Err: errors.New("payment gateway not configured"),
	}
}

var _ scheduling.PaymentGateway = DisabledGateway{}
