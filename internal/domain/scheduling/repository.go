package scheduling

import (
	"context"
	"time"

	"github.com/bookora/booking-scheduler/internal/models"
)

type Repository interface {
	// -------- Provider --------
	GetProviderByID(
		ctx context.Context,
		id uint,
	) (*models.Provider, error)

	GetProviderBySlug(
		ctx context.Context,
		slug string,
	) (*models.Provider, error)

	// -------- Availability rules --------

	// GetRecurringHours returns (nil, nil) when the weekday has no entry;
	// an unconfigured schedule is not an error.
	GetRecurringHours(
		ctx context.Context,
		providerID uint,
		weekday int,
	) (*models.RecurringHours, error)

	ListRecurringHours(
		ctx context.Context,
		providerID uint,
	) ([]models.RecurringHours, error)

	UpsertRecurringHours(
		ctx context.Context,
		entry *models.RecurringHours,
	) error

	ListCustomSlots(
		ctx context.Context,
		providerID uint,
		from time.Time,
		to time.Time,
	) ([]models.CustomTimeSlot, error)

	CreateCustomSlot(
		ctx context.Context,
		slot *models.CustomTimeSlot,
	) error

	DeleteCustomSlot(
		ctx context.Context,
		providerID uint,
		slotID uint,
	) error

	// IsDateBlocked reports whether the provider closed the day covering
	// [dayStart, dayEnd).
	IsDateBlocked(
		ctx context.Context,
		providerID uint,
		dayStart time.Time,
		dayEnd time.Time,
	) (bool, error)

	ListBlockedDates(
		ctx context.Context,
		providerID uint,
	) ([]models.BlockedDate, error)

	CreateBlockedDate(
		ctx context.Context,
		entry *models.BlockedDate,
	) error

	DeleteBlockedDate(
		ctx context.Context,
		providerID uint,
		blockID uint,
	) error

	// -------- Customer --------
	GetOrCreateCustomer(
		ctx context.Context,
		providerID uint,
		name string,
		email string,
		phone string,
	) (*models.Customer, error)

	// -------- Booking (read) --------
	GetBooking(
		ctx context.Context,
		id uint,
	) (*models.Booking, error)

	GetBookingByReference(
		ctx context.Context,
		reference string,
	) (*models.Booking, error)

	// ListActiveBookings returns PENDING_DEPOSIT/CONFIRMED bookings in
	// [from, to), excluding deposit holds already past their window at
	// `now` so reclaimed capacity shows up between sweeps.
	ListActiveBookings(
		ctx context.Context,
		providerID uint,
		from time.Time,
		to time.Time,
		now time.Time,
	) ([]models.Booking, error)

	ListBookingsForDay(
		ctx context.Context,
		providerID uint,
		from time.Time,
		to time.Time,
	) ([]models.Booking, error)

	// -------- Booking (write) --------

	// InsertBookingIfCapacityAvailable commits the booking only if, at
	// commit time, overlapping active bookings stay below capacity and
	// the day's active count stays below the plan cap. The check and the
	// insert are serialized per provider.
	InsertBookingIfCapacityAvailable(
		ctx context.Context,
		b *models.Booking,
		capacity int,
		dayLimit DayLimit,
		dayStart time.Time,
		dayEnd time.Time,
	) error

	// RescheduleBookingIfAvailable moves the booking only if the new
	// window passes the same capacity check; on failure the original
	// booking is left untouched.
	RescheduleBookingIfAvailable(
		ctx context.Context,
		bookingID uint,
		newStart time.Time,
		newEnd time.Time,
		capacity int,
		dayLimit DayLimit,
		dayStart time.Time,
		dayEnd time.Time,
	) (*models.Booking, error)

	// ConfirmBookingIfPending transitions PENDING_DEPOSIT -> CONFIRMED.
	// Returns false when the booking was no longer pending (already
	// confirmed, cancelled, or reclaimed by the expiry sweep).
	ConfirmBookingIfPending(
		ctx context.Context,
		bookingID uint,
		now time.Time,
	) (bool, error)

	CancelBooking(
		ctx context.Context,
		bookingID uint,
		reason string,
		now time.Time,
	) (*models.Booking, error)

	// CancelExpiredHolds cancels PENDING_DEPOSIT bookings past their hold
	// window in one conditional update and reports how many it released.
	CancelExpiredHolds(
		ctx context.Context,
		now time.Time,
	) (int64, error)

	SetDepositReference(
		ctx context.Context,
		bookingID uint,
		reference string,
	) error
}
