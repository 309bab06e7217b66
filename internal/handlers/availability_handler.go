package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/httperr"
	"github.com/bookora/booking-scheduler/internal/httpresp"
	"github.com/bookora/booking-scheduler/internal/infra/cache"
	"github.com/bookora/booking-scheduler/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type AvailabilityHandler struct {
	list  *booking.ListAvailableSlots
	repo  scheduling.Repository
	cache *cache.AvailabilityCache
}

func NewAvailabilityHandler(
	list *booking.ListAvailableSlots,
	repo scheduling.Repository,
	availabilityCache *cache.AvailabilityCache,
) *AvailabilityHandler {
	return &AvailabilityHandler{
		list:  list,
		repo:  repo,
		cache: availabilityCache,
	}
}

// ListSlots is the public availability endpoint:
// GET /public/:slug/slots?date=YYYY-MM-DD&duration=60
func (h *AvailabilityHandler) ListSlots(c *gin.Context) {
	slug := c.Param("slug")

	date := c.Query("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		httperr.BadRequest(c, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	durationMin := 0
	if raw := c.Query("duration"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httperr.BadRequest(c, "invalid_duration", "duration must be a positive number of minutes")
			return
		}
		durationMin = n
	}

	if h.cache != nil {
		if provider, err := h.repo.GetProviderBySlug(c.Request.Context(), slug); err == nil {
			if slots, ok := h.cache.Get(c.Request.Context(), provider.ID, date, durationMin); ok {
				httpresp.List(c, slots)
				return
			}
		}
	}

	slots, err := h.list.Execute(c.Request.Context(), booking.ListAvailableSlotsInput{
		ProviderSlug: slug,
		Date:         date,
		DurationMin:  durationMin,
	})
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	if slots == nil {
		slots = []scheduling.Slot{}
	}

	if h.cache != nil {
		if provider, err := h.repo.GetProviderBySlug(c.Request.Context(), slug); err == nil {
			// Best effort; a cache store failure never fails the request.
			_ = h.cache.Set(c.Request.Context(), provider.ID, date, durationMin, slots)
		}
	}

	httpresp.List(c, slots)
}
