package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookora/booking-scheduler/internal/httperr"
	"github.com/bookora/booking-scheduler/internal/httpresp"
	"github.com/bookora/booking-scheduler/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

// BookingPublicHandler serves the customer-facing booking flow. Nothing
// here requires authentication; the booking reference is the capability.
type BookingPublicHandler struct {
	reserve  *booking.Reserve
	get      *booking.GetBooking
	cancel   *booking.Cancel
	deposits *booking.DepositCallbacks
}

func NewBookingPublicHandler(
	reserve *booking.Reserve,
	get *booking.GetBooking,
	cancel *booking.Cancel,
	deposits *booking.DepositCallbacks,
) *BookingPublicHandler {
	return &BookingPublicHandler{
		reserve:  reserve,
		get:      get,
		cancel:   cancel,
		deposits: deposits,
	}
}

// --------- Requests ---------

type ReserveRequest struct {
	Date        string `json:"date" binding:"required"`
	Time        string `json:"time" binding:"required"`
	DurationMin int    `json:"duration_min"`

	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"required,email"`
	CustomerPhone string `json:"customer_phone"`

	ServiceName string `json:"service_name"`
	Notes       string `json:"notes"`
}

// --------- Handlers ---------

// Reserve handles POST /public/:slug/bookings.
func (h *BookingPublicHandler) Reserve(c *gin.Context) {
	slug := c.Param("slug")

	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	out, err := h.reserve.Execute(c.Request.Context(), booking.ReserveInput{
		ProviderSlug:  slug,
		Date:          req.Date,
		Time:          req.Time,
		DurationMin:   req.DurationMin,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		ServiceName:   req.ServiceName,
		Notes:         req.Notes,
	})

	// A gateway failure still carries a committed reservation; hand the
	// booking back with a retry hint instead of losing the slot.
	if err != nil && out != nil {
		c.JSON(http.StatusAccepted, gin.H{
			"booking":       out.Booking,
			"deposit_error": "deposit_intent_failed",
			"retry_url":     "/bookings/" + out.Booking.Reference + "/deposit/retry",
		})
		return
	}
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	httpresp.Created(c, out)
}

// Get handles GET /bookings/:reference.
func (h *BookingPublicHandler) Get(c *gin.Context) {
	b, err := h.get.ByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		// The reclaimed booking still ships in the error body so the
		// customer sees what happened to their hold.
		httperr.FromDomain(c, err)
		return
	}
	httpresp.OK(c, b)
}

// Cancel handles DELETE /bookings/:reference.
func (h *BookingPublicHandler) Cancel(c *gin.Context) {
	b, err := h.cancel.ByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}
	httpresp.OK(c, b)
}

// RetryDeposit handles POST /bookings/:reference/deposit/retry.
func (h *BookingPublicHandler) RetryDeposit(c *gin.Context) {
	intent, err := h.deposits.RetryDeposit(c.Request.Context(), c.Param("reference"))
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}
	httpresp.Created(c, intent)
}
