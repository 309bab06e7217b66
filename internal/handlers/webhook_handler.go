package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/infra/payment"
	"github.com/bookora/booking-scheduler/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

// WebhookHandler receives Mercado Pago payment notifications. The gateway
// retries until it sees a 2xx, so unknown or not-yet-relevant events are
// acknowledged rather than erred.
type WebhookHandler struct {
	gateway  *payment.MercadoPagoGateway
	deposits *booking.DepositCallbacks
	logger   zerolog.Logger
}

func NewWebhookHandler(
	gateway *payment.MercadoPagoGateway,
	deposits *booking.DepositCallbacks,
	logger zerolog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		gateway:  gateway,
		deposits: deposits,
		logger:   logger.With().Str("handler", "webhook").Logger(),
	}
}

type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// MercadoPago handles POST /webhooks/mercadopago.
func (h *WebhookHandler) MercadoPago(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}

	if payload.Type != "payment" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	paymentID, err := strconv.Atoi(payload.Data.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payment_id"})
		return
	}

	reference, status, err := h.gateway.ResolvePayment(c.Request.Context(), paymentID)
	if err != nil {
		h.logger.Error().Err(err).Int("payment_id", paymentID).
			Msg("payment lookup failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment_lookup_failed"})
		return
	}

	switch status {
	case "approved":
		_, err = h.deposits.OnDepositSucceeded(c.Request.Context(), reference)
	case "rejected", "cancelled":
		err = h.deposits.OnDepositFailed(c.Request.Context(), reference, status)
	default:
		// in_process and friends: wait for the terminal notification.
		c.JSON(http.StatusOK, gin.H{"status": "pending"})
		return
	}

	if err != nil {
		var timeoutErr *scheduling.DepositTimeoutError
		var nfErr *scheduling.NotFoundError
		switch {
		case errors.As(err, &timeoutErr):
			// Paid after the hold lapsed; acknowledged, refund handled
			// out of band.
			h.logger.Warn().Str("reference", reference).
				Msg("deposit arrived after hold expiry")
			c.JSON(http.StatusOK, gin.H{"status": "hold_expired"})
		case errors.As(err, &nfErr):
			h.logger.Warn().Str("reference", reference).
				Msg("notification for unknown booking")
			c.JSON(http.StatusOK, gin.H{"status": "unknown_booking"})
		default:
			h.logger.Error().Err(err).Str("reference", reference).
				Msg("deposit handling failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "deposit_handling_failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}
