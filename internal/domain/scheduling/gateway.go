package scheduling

import (
	"context"

	"github.com/bookora/booking-scheduler/internal/models"
)

// DepositIntent is the opaque handle returned by the payment provider for
// a deposit hold.
type DepositIntent struct {
	Reference   string  `json:"reference"`
	CheckoutURL string  `json:"checkout_url"`
	Amount      float64 `json:"amount"`
}

// PaymentGateway is the outbound payment capability. Implementations must
// never be called while a provider-level lock is held; intents are
// requested strictly after the reservation commits.
type PaymentGateway interface {
	CreateDepositIntent(
		ctx context.Context,
		b *models.Booking,
		amount float64,
		payeeAccount string,
	) (*DepositIntent, error)
}
