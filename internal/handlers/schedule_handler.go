package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bookora/booking-scheduler/internal/audit"
	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/httperr"
	"github.com/bookora/booking-scheduler/internal/httpresp"
	"github.com/bookora/booking-scheduler/internal/infra/cache"
	"github.com/bookora/booking-scheduler/internal/middleware"
	"github.com/bookora/booking-scheduler/internal/models"
	"github.com/bookora/booking-scheduler/internal/timezone"
)

// ======================================================
// HANDLER
// ======================================================

// ScheduleHandler manages the provider's availability rules: the weekly
// recurring hours, the absolute custom windows layered on top, and the
// blocked dates that close whole days.
type ScheduleHandler struct {
	repo   scheduling.Repository
	policy *scheduling.Policy
	audit  *audit.Dispatcher
	cache  *cache.AvailabilityCache
	logger zerolog.Logger
}

func NewScheduleHandler(
	repo scheduling.Repository,
	policy *scheduling.Policy,
	auditDispatcher *audit.Dispatcher,
	availabilityCache *cache.AvailabilityCache,
	logger zerolog.Logger,
) *ScheduleHandler {
	return &ScheduleHandler{
		repo:   repo,
		policy: policy,
		audit:  auditDispatcher,
		cache:  availabilityCache,
		logger: logger.With().Str("handler", "schedule").Logger(),
	}
}

// --------- Requests ---------

type RecurringHoursRequest struct {
	Weekday         int    `json:"weekday" binding:"min=0,max=6"`
	Active          bool   `json:"active"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	SlotDurationMin int    `json:"slot_duration_min"`
	MaxConcurrent   int    `json:"max_concurrent"`
}

type CustomSlotRequest struct {
	Date        string `json:"date" binding:"required"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
	DurationMin int    `json:"duration_min" binding:"required"`
	MaxBookings int    `json:"max_bookings"`
}

type BlockedDateRequest struct {
	Date   string `json:"date" binding:"required"`
	Reason string `json:"reason"`
}

// --------- Recurring hours ---------

func (h *ScheduleHandler) ListRecurringHours(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	hours, err := h.repo.ListRecurringHours(c.Request.Context(), providerID)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}
	httpresp.List(c, hours)
}

func (h *ScheduleHandler) UpsertRecurringHours(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	var req RecurringHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	provider, err := h.repo.GetProviderByID(c.Request.Context(), providerID)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}
	constraints := h.policy.Resolve(scheduling.Tier(provider.Plan))

	if req.Active {
		start, errStart := time.Parse("15:04", req.StartTime)
		end, errEnd := time.Parse("15:04", req.EndTime)
		if errStart != nil || errEnd != nil {
			httperr.BadRequest(c, "invalid_time", "start_time and end_time must be HH:mm")
			return
		}
		if !end.After(start) {
			httperr.BadRequest(c, "invalid_window", "end_time must be after start_time")
			return
		}
		if req.SlotDurationMin != 0 && !constraints.AllowsDuration(req.SlotDurationMin) {
			httperr.FromDomain(c, &scheduling.UnsupportedDurationError{
				DurationMin: req.SlotDurationMin,
				Allowed:     constraints.AllowedDurations,
			})
			return
		}
	}

	if req.MaxConcurrent <= 0 {
		req.MaxConcurrent = 1
	}
	if req.SlotDurationMin <= 0 {
		req.SlotDurationMin = 30
	}

	entry := models.RecurringHours{
		ProviderID:      providerID,
		Weekday:         req.Weekday,
		Active:          req.Active,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		SlotDurationMin: req.SlotDurationMin,
		MaxConcurrent:   req.MaxConcurrent,
	}

	if err := h.repo.UpsertRecurringHours(c.Request.Context(), &entry); err != nil {
		httperr.FromDomain(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		ProviderID: providerID,
		ActorID:    &providerID,
		Action:     "recurring_hours_updated",
		Entity:     "recurring_hours",
		EntityID:   &entry.ID,
		Metadata:   req,
	})
	h.invalidateAll(c, providerID)

	httpresp.OK(c, entry)
}

// --------- Custom slots ---------

func (h *ScheduleHandler) ListCustomSlots(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	provider, err := h.repo.GetProviderByID(c.Request.Context(), providerID)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}
	loc := timezone.Location(provider.Timezone)

	from := timezone.NowIn(provider.Timezone)
	to := from.AddDate(0, 1, 0)

	if raw := c.Query("from"); raw != "" {
		if parsed, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
			from = parsed
		}
	}
	if raw := c.Query("to"); raw != "" {
		if parsed, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
			to = parsed.AddDate(0, 0, 1)
		}
	}

	slots, err := h.repo.ListCustomSlots(c.Request.Context(), providerID, from, to)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}
	httpresp.List(c, slots)
}

func (h *ScheduleHandler) CreateCustomSlot(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	var req CustomSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	provider, err := h.repo.GetProviderByID(c.Request.Context(), providerID)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}
	constraints := h.policy.Resolve(scheduling.Tier(provider.Plan))

	if !constraints.CustomSlots {
		httperr.Forbidden(c, "plan_upgrade_required",
			"Custom time slots are not available on the current plan.")
		return
	}
	if !constraints.AllowsDuration(req.DurationMin) {
		httperr.FromDomain(c, &scheduling.UnsupportedDurationError{
			DurationMin: req.DurationMin,
			Allowed:     constraints.AllowedDurations,
		})
		return
	}

	loc := timezone.Location(provider.Timezone)
	start, errStart := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.StartTime, loc)
	end, errEnd := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.EndTime, loc)
	if errStart != nil || errEnd != nil {
		httperr.BadRequest(c, "invalid_time", "date must be YYYY-MM-DD, times HH:mm")
		return
	}
	if !end.After(start) {
		httperr.BadRequest(c, "invalid_window", "end_time must be after start_time")
		return
	}

	if req.MaxBookings <= 0 {
		req.MaxBookings = 1
	}

	slot := models.CustomTimeSlot{
		ProviderID:  providerID,
		StartTime:   start,
		EndTime:     end,
		DurationMin: req.DurationMin,
		MaxBookings: req.MaxBookings,
	}

	if err := h.repo.CreateCustomSlot(c.Request.Context(), &slot); err != nil {
		httperr.FromDomain(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		ProviderID: providerID,
		ActorID:    &providerID,
		Action:     "custom_slot_created",
		Entity:     "custom_slot",
		EntityID:   &slot.ID,
		Metadata:   req,
	})
	h.invalidateDay(c, providerID, req.Date)

	httpresp.Created(c, slot)
}

func (h *ScheduleHandler) DeleteCustomSlot(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	slotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_slot_id", "slot id must be numeric")
		return
	}

	if err := h.repo.DeleteCustomSlot(c.Request.Context(), providerID, uint(slotID)); err != nil {
		httperr.FromDomain(c, err)
		return
	}

	id := uint(slotID)
	h.audit.Dispatch(audit.Event{
		ProviderID: providerID,
		ActorID:    &providerID,
		Action:     "custom_slot_deleted",
		Entity:     "custom_slot",
		EntityID:   &id,
	})
	h.invalidateAll(c, providerID)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --------- Blocked dates ---------

func (h *ScheduleHandler) ListBlockedDates(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	entries, err := h.repo.ListBlockedDates(c.Request.Context(), providerID)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}
	httpresp.List(c, entries)
}

func (h *ScheduleHandler) CreateBlockedDate(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	var req BlockedDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"details": err.Error(),
		})
		return
	}

	provider, err := h.repo.GetProviderByID(c.Request.Context(), providerID)
	if err != nil {
		httperr.FromDomain(c, err)
		return
	}

	loc := timezone.Location(provider.Timezone)
	day, err := time.ParseInLocation("2006-01-02", req.Date, loc)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	entry := models.BlockedDate{
		ProviderID: providerID,
		Date:       day,
		Reason:     req.Reason,
	}

	if err := h.repo.CreateBlockedDate(c.Request.Context(), &entry); err != nil {
		httperr.FromDomain(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		ProviderID: providerID,
		ActorID:    &providerID,
		Action:     "date_blocked",
		Entity:     "blocked_date",
		EntityID:   &entry.ID,
		Metadata:   req,
	})
	h.invalidateDay(c, providerID, req.Date)

	httpresp.Created(c, entry)
}

func (h *ScheduleHandler) DeleteBlockedDate(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	blockID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_block_id", "blocked date id must be numeric")
		return
	}

	if err := h.repo.DeleteBlockedDate(c.Request.Context(), providerID, uint(blockID)); err != nil {
		httperr.FromDomain(c, err)
		return
	}

	id := uint(blockID)
	h.audit.Dispatch(audit.Event{
		ProviderID: providerID,
		ActorID:    &providerID,
		Action:     "date_unblocked",
		Entity:     "blocked_date",
		EntityID:   &id,
	})
	h.invalidateAll(c, providerID)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --------- Cache ---------

func (h *ScheduleHandler) invalidateAll(c *gin.Context, providerID uint) {
	if h.cache == nil {
		return
	}
	if err := h.cache.InvalidateAll(c.Request.Context(), providerID); err != nil {
		h.logger.Warn().Err(err).Msg("availability cache invalidation failed")
	}
}

func (h *ScheduleHandler) invalidateDay(c *gin.Context, providerID uint, date string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(c.Request.Context(), providerID, date); err != nil {
		h.logger.Warn().Err(err).Msg("availability cache invalidation failed")
	}
}
