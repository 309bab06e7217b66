package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bookora/booking-scheduler/internal/audit"
	"github.com/bookora/booking-scheduler/internal/config"
	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/handlers"
	"github.com/bookora/booking-scheduler/internal/infra/cache"
	"github.com/bookora/booking-scheduler/internal/infra/payment"
	"github.com/bookora/booking-scheduler/internal/infra/repository"
	"github.com/bookora/booking-scheduler/internal/middleware"
	"github.com/bookora/booking-scheduler/internal/usecase/booking"
	"github.com/bookora/booking-scheduler/internal/worker"
)

// RegisterRoutes wires the whole HTTP surface and returns the background
// hold sweeper for main to run.
func RegisterRoutes(
	r *gin.Engine,
	db *gorm.DB,
	cfg *config.Config,
	logger zerolog.Logger,
) *worker.HoldSweeper {

	repo := repository.NewBookingGormRepository(db)
	policy := scheduling.NewPolicy()
	dispatcher := audit.NewDispatcher(audit.New(db), logger)

	var availabilityCache *cache.AvailabilityCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		availabilityCache = cache.NewAvailabilityCache(client, cfg.CacheTTL)
	}

	var gateway scheduling.PaymentGateway = payment.DisabledGateway{}
	var mpGateway *payment.MercadoPagoGateway
	if cfg.MercadoPagoToken != "" {
		mp, err := payment.NewMercadoPagoGateway(cfg.MercadoPagoToken)
		if err != nil {
			logger.Fatal().Err(err).Msg("mercado pago setup failed")
		}
		mpGateway = mp
		gateway = mp
	}

	// cacheInv is nil-safe inside the use cases; a nil interface value
	// must stay nil, not a typed nil.
	var cacheInv booking.AvailabilityInvalidator
	if availabilityCache != nil {
		cacheInv = availabilityCache
	}

	// ---------------- Use cases ----------------

	listSlots := booking.NewListAvailableSlots(repo, policy)
	reserve := booking.NewReserve(repo, policy, gateway, dispatcher, cacheInv, cfg.HoldWindow, logger)
	getBooking := booking.NewGetBooking(repo)
	cancel := booking.NewCancel(repo, dispatcher, cacheInv, logger)
	reschedule := booking.NewReschedule(repo, policy, dispatcher, cacheInv, logger)
	deposits := booking.NewDepositCallbacks(repo, gateway, dispatcher, cacheInv, logger)
	expire := booking.NewExpireHolds(repo, logger)

	// ---------------- Handlers ----------------

	authHandler := handlers.NewAuthHandler(db, cfg)
	availabilityHandler := handlers.NewAvailabilityHandler(listSlots, repo, availabilityCache)
	publicBookings := handlers.NewBookingPublicHandler(reserve, getBooking, cancel, deposits)
	providerBookings := handlers.NewBookingProviderHandler(repo, cancel, reschedule)
	scheduleHandler := handlers.NewScheduleHandler(repo, policy, dispatcher, availabilityCache, logger)
	meHandler := handlers.NewMeHandler(db)
	auditHandler := handlers.NewAuditLogsHandler(db)

	// ---------------- Public ----------------

	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)

	public := r.Group("/public")
	{
		public.GET("/:slug/slots", availabilityHandler.ListSlots)
		public.POST("/:slug/bookings", publicBookings.Reserve)
	}

	r.GET("/bookings/:reference", publicBookings.Get)
	r.DELETE("/bookings/:reference", publicBookings.Cancel)
	r.POST("/bookings/:reference/deposit/retry", publicBookings.RetryDeposit)

	if mpGateway != nil {
		webhookHandler := handlers.NewWebhookHandler(mpGateway, deposits, logger)
		r.POST("/webhooks/mercadopago", webhookHandler.MercadoPago)
	}

	// ---------------- Provider (authenticated) ----------------

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg))
	{
		api.GET("/me", meHandler.GetMe)
		api.PATCH("/me/settings", meHandler.UpdateSettings)

		api.GET("/schedule/recurring", scheduleHandler.ListRecurringHours)
		api.PUT("/schedule/recurring", scheduleHandler.UpsertRecurringHours)

		api.GET("/schedule/custom-slots", scheduleHandler.ListCustomSlots)
		api.POST("/schedule/custom-slots", scheduleHandler.CreateCustomSlot)
		api.DELETE("/schedule/custom-slots/:id", scheduleHandler.DeleteCustomSlot)

		api.GET("/schedule/blocked-dates", scheduleHandler.ListBlockedDates)
		api.POST("/schedule/blocked-dates", scheduleHandler.CreateBlockedDate)
		api.DELETE("/schedule/blocked-dates/:id", scheduleHandler.DeleteBlockedDate)

		api.GET("/bookings", providerBookings.ListForDay)
		api.POST("/bookings/:id/cancel", providerBookings.Cancel)
		api.PATCH("/bookings/:id/reschedule", providerBookings.Reschedule)

		api.GET("/audit-logs", auditHandler.List)
	}

	return worker.NewHoldSweeper(expire, cfg.SweepInterval, logger)
}
