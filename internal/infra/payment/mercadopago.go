package payment

import (
	"context"
	"fmt"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/models"
)

// MercadoPagoGateway implements scheduling.PaymentGateway on top of the
// Mercado Pago checkout preference API. A preference is the deposit
// intent: its id and init point are handed back to the booking page.
type MercadoPagoGateway struct {
	prefs    preference.Client
	payments mppayment.Client
}

func NewMercadoPagoGateway(accessToken string) (*MercadoPagoGateway, error) {
	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, err
	}

	return &MercadoPagoGateway{
		prefs:    preference.NewClient(cfg),
		payments: mppayment.NewClient(cfg),
	}, nil
}

func (g *MercadoPagoGateway) CreateDepositIntent(
	ctx context.Context,
	b *models.Booking,
	amount float64,
	payeeAccount string,
) (*scheduling.DepositIntent, error) {

	req := preference.Request{
		Items: []preference.ItemRequest{
			{
				Title: fmt.Sprintf(
					"Booking deposit %s",
					b.StartTime.Format("2006-01-02 15:04"),
				),
				Description: b.ServiceName,
				Quantity:    1,
				UnitPrice:   amount,
			},
		},
		// ExternalReference carries the booking back through webhooks.
		ExternalReference: b.Reference,
	}

	resp, err := g.prefs.Create(ctx, req)
	if err != nil {
		return nil, &scheduling.GatewayError{Op: "create_deposit_intent", Err: err}
	}

	return &scheduling.DepositIntent{
		Reference:   resp.ID,
		CheckoutURL: resp.InitPoint,
		Amount:      amount,
	}, nil
}

// ResolvePayment looks a notified payment up and returns the booking
// reference it belongs to plus the gateway's status string.
func (g *MercadoPagoGateway) ResolvePayment(
	ctx context.Context,
	paymentID int,
) (string, string, error) {

	p, err := g.payments.Get(ctx, paymentID)
	if err != nil {
		return "", "", &scheduling.GatewayError{Op: "get_payment", Err: err}
	}

	return p.ExternalReference, p.Status, nil
}

var _ scheduling.PaymentGateway = (*MercadoPagoGateway)(nil)
