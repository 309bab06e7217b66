package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/models"
)

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

var activeStatuses = []string{
	string(scheduling.StatusPendingDeposit),
	string(scheduling.StatusConfirmed),
}

// --------------------------------------------------
// Provider
// --------------------------------------------------

func (r *BookingGormRepository) GetProviderByID(
	ctx context.Context,
	id uint,
) (*models.Provider, error) {

	var p models.Provider
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &scheduling.NotFoundError{Entity: "provider", Ref: itoa(id)}
		}
		return nil, err
	}
	return &p, nil
}

func (r *BookingGormRepository) GetProviderBySlug(
	ctx context.Context,
	slug string,
) (*models.Provider, error) {

	var p models.Provider
	if err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &scheduling.NotFoundError{Entity: "provider", Ref: slug}
		}
		return nil, err
	}
	return &p, nil
}

// --------------------------------------------------
// Availability rules
// --------------------------------------------------

func (r *BookingGormRepository) GetRecurringHours(
	ctx context.Context,
	providerID uint,
	weekday int,
) (*models.RecurringHours, error) {

	var rh models.RecurringHours
	err := r.db.WithContext(ctx).
		Where("provider_id = ? AND weekday = ?", providerID, weekday).
		First(&rh).Error
	if err != nil {
		// An unconfigured weekday is a valid, empty availability.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rh, nil
}

func (r *BookingGormRepository) ListRecurringHours(
	ctx context.Context,
	providerID uint,
) ([]models.RecurringHours, error) {

	var entries []models.RecurringHours
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("weekday ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *BookingGormRepository) UpsertRecurringHours(
	ctx context.Context,
	entry *models.RecurringHours,
) error {

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider_id"}, {Name: "weekday"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"start_time", "end_time", "slot_duration_min",
				"max_concurrent", "active", "updated_at",
			}),
		}).
		Create(entry).Error
}

func (r *BookingGormRepository) ListCustomSlots(
	ctx context.Context,
	providerID uint,
	from time.Time,
	to time.Time,
) ([]models.CustomTimeSlot, error) {

	var slots []models.CustomTimeSlot
	if err := r.db.WithContext(ctx).
		Where(
			"provider_id = ? AND start_time < ? AND end_time > ?",
			providerID, to, from,
		).
		Order("created_at ASC, id ASC").
		Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *BookingGormRepository) CreateCustomSlot(
	ctx context.Context,
	slot *models.CustomTimeSlot,
) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *BookingGormRepository) DeleteCustomSlot(
	ctx context.Context,
	providerID uint,
	slotID uint,
) error {

	res := r.db.WithContext(ctx).
		Where("id = ? AND provider_id = ?", slotID, providerID).
		Delete(&models.CustomTimeSlot{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &scheduling.NotFoundError{Entity: "custom_slot", Ref: itoa(slotID)}
	}
	return nil
}

func (r *BookingGormRepository) IsDateBlocked(
	ctx context.Context,
	providerID uint,
	dayStart time.Time,
	dayEnd time.Time,
) (bool, error) {

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BlockedDate{}).
		Where(
			"provider_id = ? AND date >= ? AND date < ?",
			providerID, dayStart, dayEnd,
		).
		Count(&count).Error
	return count > 0, err
}

func (r *BookingGormRepository) ListBlockedDates(
	ctx context.Context,
	providerID uint,
) ([]models.BlockedDate, error) {

	var entries []models.BlockedDate
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("date ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *BookingGormRepository) CreateBlockedDate(
	ctx context.Context,
	entry *models.BlockedDate,
) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *BookingGormRepository) DeleteBlockedDate(
	ctx context.Context,
	providerID uint,
	blockID uint,
) error {

	res := r.db.WithContext(ctx).
		Where("id = ? AND provider_id = ?", blockID, providerID).
		Delete(&models.BlockedDate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &scheduling.NotFoundError{Entity: "blocked_date", Ref: itoa(blockID)}
	}
	return nil
}

// --------------------------------------------------
// Customer
// --------------------------------------------------

func (r *BookingGormRepository) GetOrCreateCustomer(
	ctx context.Context,
	providerID uint,
	name string,
	email string,
	phone string,
) (*models.Customer, error) {

	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("provider_id = ? AND email = ?", providerID, email).
		First(&customer).Error

	if err == nil {
		return &customer, nil
	}

	customer = models.Customer{
		ProviderID: providerID,
		Name:       name,
		Email:      email,
		Phone:      phone,
	}

	if err := r.db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}

	return &customer, nil
}

// --------------------------------------------------
// Booking (read)
// --------------------------------------------------

func (r *BookingGormRepository) GetBooking(
	ctx context.Context,
	id uint,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &scheduling.NotFoundError{Entity: "booking", Ref: itoa(id)}
		}
		return nil, err
	}
	return &b, nil
}

func (r *BookingGormRepository) GetBookingByReference(
	ctx context.Context,
	reference string,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("reference = ?", reference).
		First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &scheduling.NotFoundError{Entity: "booking", Ref: reference}
		}
		return nil, err
	}
	return &b, nil
}

func (r *BookingGormRepository) ListActiveBookings(
	ctx context.Context,
	providerID uint,
	from time.Time,
	to time.Time,
	now time.Time,
) ([]models.Booking, error) {

	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Where(
			"provider_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
			providerID, activeStatuses, to, from,
		).
		// Lazy reclaim: expired deposit holds stop blocking capacity even
		// before the sweep cancels them.
		Where(
			"NOT (status = ? AND hold_expires_at IS NOT NULL AND hold_expires_at < ?)",
			string(scheduling.StatusPendingDeposit), now,
		).
		Order("start_time ASC").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *BookingGormRepository) ListBookingsForDay(
	ctx context.Context,
	providerID uint,
	from time.Time,
	to time.Time,
) ([]models.Booking, error) {

	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Where(
			"provider_id = ? AND start_time >= ? AND start_time < ?",
			providerID, from, to,
		).
		Order("start_time ASC").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// --------------------------------------------------
// Booking (write)
// --------------------------------------------------

// InsertBookingIfCapacityAvailable serializes the capacity check and the
// insert per provider with a transaction-scoped advisory lock, so two
// concurrent attempts for the same last-open slot cannot both pass.
func (r *BookingGormRepository) InsertBookingIfCapacityAvailable(
	ctx context.Context,
	b *models.Booking,
	capacity int,
	dayLimit scheduling.DayLimit,
	dayStart time.Time,
	dayEnd time.Time,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProvider(tx, b.ProviderID); err != nil {
			return err
		}

		overlapping, err := countActive(tx, b.ProviderID, b.StartTime, b.EndTime, time.Now())
		if err != nil {
			return err
		}
		if overlapping >= int64(capacity) {
			return &scheduling.SlotUnavailableError{Start: b.StartTime, End: b.EndTime}
		}

		if !dayLimit.IsUnlimited() {
			dayCount, err := countActive(tx, b.ProviderID, dayStart, dayEnd, time.Now())
			if err != nil {
				return err
			}
			if dayLimit.Reached(int(dayCount)) {
				return &scheduling.PlanLimitExceededError{MaxPerDay: dayLimit.Max()}
			}
		}

		return tx.Create(b).Error
	})
}

func (r *BookingGormRepository) RescheduleBookingIfAvailable(
	ctx context.Context,
	bookingID uint,
	newStart time.Time,
	newEnd time.Time,
	capacity int,
	dayLimit scheduling.DayLimit,
	dayStart time.Time,
	dayEnd time.Time,
) (*models.Booking, error) {

	var moved models.Booking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.First(&b, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &scheduling.NotFoundError{Entity: "booking", Ref: itoa(bookingID)}
			}
			return err
		}

		if !scheduling.CanReschedule(scheduling.Status(b.Status)) {
			return &scheduling.InvalidStateError{Current: scheduling.Status(b.Status)}
		}

		if err := lockProvider(tx, b.ProviderID); err != nil {
			return err
		}

		// The booking's own row must not block its new window.
		var overlapping int64
		if err := tx.Model(&models.Booking{}).
			Where(
				"provider_id = ? AND id <> ? AND status IN ? AND start_time < ? AND end_time > ?",
				b.ProviderID, b.ID, activeStatuses, newEnd, newStart,
			).
			Count(&overlapping).Error; err != nil {
			return err
		}
		if overlapping >= int64(capacity) {
			return &scheduling.SlotUnavailableError{Start: newStart, End: newEnd}
		}

		if !dayLimit.IsUnlimited() {
			var dayCount int64
			if err := tx.Model(&models.Booking{}).
				Where(
					"provider_id = ? AND id <> ? AND status IN ? AND start_time < ? AND end_time > ?",
					b.ProviderID, b.ID, activeStatuses, dayEnd, dayStart,
				).
				Count(&dayCount).Error; err != nil {
				return err
			}
			if dayLimit.Reached(int(dayCount)) {
				return &scheduling.PlanLimitExceededError{MaxPerDay: dayLimit.Max()}
			}
		}

		b.StartTime = newStart
		b.EndTime = newEnd
		if err := tx.Save(&b).Error; err != nil {
			return err
		}

		moved = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &moved, nil
}

func (r *BookingGormRepository) ConfirmBookingIfPending(
	ctx context.Context,
	bookingID uint,
	now time.Time,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", bookingID, string(scheduling.StatusPendingDeposit)).
		Updates(map[string]any{
			"status":       string(scheduling.StatusConfirmed),
			"deposit_paid": true,
			"confirmed_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *BookingGormRepository) CancelBooking(
	ctx context.Context,
	bookingID uint,
	reason string,
	now time.Time,
) (*models.Booking, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status IN ?", bookingID, activeStatuses).
		Updates(map[string]any{
			"status":        string(scheduling.StatusCancelled),
			"cancel_reason": reason,
			"cancelled_at":  now,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		// Either missing or already terminal; look to tell them apart.
		b, err := r.GetBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		return nil, &scheduling.InvalidStateError{Current: scheduling.Status(b.Status)}
	}

	return r.GetBooking(ctx, bookingID)
}

// CancelExpiredHolds is a single conditional update: a hold that was
// confirmed between the sweep's read and write simply no longer matches.
func (r *BookingGormRepository) CancelExpiredHolds(
	ctx context.Context,
	now time.Time,
) (int64, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where(
			"status = ? AND hold_expires_at IS NOT NULL AND hold_expires_at < ?",
			string(scheduling.StatusPendingDeposit), now,
		).
		Updates(map[string]any{
			"status":        string(scheduling.StatusCancelled),
			"cancel_reason": scheduling.ReasonDepositTimeout,
			"cancelled_at":  now,
		})
	return res.RowsAffected, res.Error
}

func (r *BookingGormRepository) SetDepositReference(
	ctx context.Context,
	bookingID uint,
	reference string,
) error {

	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("deposit_ref", reference).Error
}

// --------------------------------------------------
// helpers
// --------------------------------------------------

func lockProvider(tx *gorm.DB, providerID uint) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", int64(providerID)).Error
}

func countActive(tx *gorm.DB, providerID uint, from, to, now time.Time) (int64, error) {
	var count int64
	err := tx.Model(&models.Booking{}).
		Where(
			"provider_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
			providerID, activeStatuses, to, from,
		).
		Where(
			"NOT (status = ? AND hold_expires_at IS NOT NULL AND hold_expires_at < ?)",
			string(scheduling.StatusPendingDeposit), now,
		).
		Count(&count).Error
	return count, err
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Compile-time check
var _ scheduling.Repository = (*BookingGormRepository)(nil)
