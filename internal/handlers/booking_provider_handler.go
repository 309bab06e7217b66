package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/dto"
	"github.com/bookora/booking-scheduler/internal/httperr"
	"github.com/bookora/booking-scheduler/internal/httpresp"
	"github.com/bookora/booking-scheduler/internal/middleware"
	"github.com/bookora/booking-scheduler/internal/timezone"
	"github.com/bookora/booking-scheduler/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type BookingProviderHandler struct {
	repo       scheduling.Repository
	cancel     *booking.Cancel
	reschedule *booking.Reschedule
}

func NewBookingProviderHandler(
	repo scheduling.Repository,
	cancel *booking.Cancel,
	reschedule *booking.Reschedule,
) *BookingProviderHandler {
	return &BookingProviderHandler{
		repo:       repo,
		cancel:     cancel,
		reschedule: reschedule,
	}
}

// --------- Requests ---------

type RescheduleRequest struct {
	Date        string `json:"date" binding:"required"`
	Time        string `json:"time" binding:"required"`
	DurationMin int    `json:"duration_min"`
}

// --------- Handlers ---------

// ListForDay handles GET /bookings?date=YYYY-MM-DD for the agenda view.
// Cancelled bookings are included; the agenda shows the full day.
func (h *BookingProviderHandler) ListForDay(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	date := c.Query("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		httperr.BadRequest(c, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	provider, err := h.repo.GetProviderByID(c.Request.Context(), providerID)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	loc := timezone.Location(provider.Timezone)
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	bookings, err := h.repo.ListBookingsForDay(
		c.Request.Context(), providerID, day, day.AddDate(0, 0, 1),
	)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	out := make([]dto.BookingListDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, dto.BookingListDTO{
			ID:           b.ID,
			Reference:    b.Reference,
			StartTime:    b.StartTime,
			EndTime:      b.EndTime,
			Status:       b.Status,
			ServiceName:  b.ServiceName,
			CustomerName: b.Customer.Name,
			DepositPaid:  b.DepositPaid,
		})
	}

	httpresp.List(c, out)
}

// Cancel handles POST /bookings/:id/cancel.
func (h *BookingProviderHandler) Cancel(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_booking_id", "booking id must be numeric")
		return
	}

	b, err := h.cancel.ByProvider(c.Request.Context(), providerID, uint(bookingID))
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}
	httpresp.OK(c, b)
}

// Reschedule handles PATCH /bookings/:id/reschedule.
func (h *BookingProviderHandler) Reschedule(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_booking_id", "booking id must be numeric")
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	moved, err := h.reschedule.Execute(c.Request.Context(), booking.RescheduleInput{
		ProviderID:  providerID,
		BookingID:   uint(bookingID),
		Date:        req.Date,
		Time:        req.Time,
		DurationMin: req.DurationMin,
	})
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}
	httpresp.OK(c, moved)
}
