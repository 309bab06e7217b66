package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/models"
)

// ---------------------------------------------------------------
// mock.Mock repository for behavioral tests
// ---------------------------------------------------------------

type mockRepo struct {
	mock.Mock
}

var _ scheduling.Repository = (*mockRepo)(nil)

func (m *mockRepo) GetProviderByID(ctx context.Context, id uint) (*models.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Provider), args.Error(1)
}

func (m *mockRepo) GetProviderBySlug(ctx context.Context, slug string) (*models.Provider, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Provider), args.Error(1)
}

func (m *mockRepo) GetRecurringHours(ctx context.Context, providerID uint, weekday int) (*models.RecurringHours, error) {
	args := m.Called(ctx, providerID, weekday)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecurringHours), args.Error(1)
}

func (m *mockRepo) ListRecurringHours(ctx context.Context, providerID uint) ([]models.RecurringHours, error) {
	args := m.Called(ctx, providerID)
	return args.Get(0).([]models.RecurringHours), args.Error(1)
}

func (m *mockRepo) UpsertRecurringHours(ctx context.Context, entry *models.RecurringHours) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockRepo) ListCustomSlots(ctx context.Context, providerID uint, from, to time.Time) ([]models.CustomTimeSlot, error) {
	args := m.Called(ctx, providerID, from, to)
	return args.Get(0).([]models.CustomTimeSlot), args.Error(1)
}

func (m *mockRepo) CreateCustomSlot(ctx context.Context, slot *models.CustomTimeSlot) error {
	return m.Called(ctx, slot).Error(0)
}

func (m *mockRepo) DeleteCustomSlot(ctx context.Context, providerID, slotID uint) error {
	return m.Called(ctx, providerID, slotID).Error(0)
}

func (m *mockRepo) IsDateBlocked(ctx context.Context, providerID uint, dayStart, dayEnd time.Time) (bool, error) {
	args := m.Called(ctx, providerID, dayStart, dayEnd)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) ListBlockedDates(ctx context.Context, providerID uint) ([]models.BlockedDate, error) {
	args := m.Called(ctx, providerID)
	return args.Get(0).([]models.BlockedDate), args.Error(1)
}

func (m *mockRepo) CreateBlockedDate(ctx context.Context, entry *models.BlockedDate) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockRepo) DeleteBlockedDate(ctx context.Context, providerID, blockID uint) error {
	return m.Called(ctx, providerID, blockID).Error(0)
}

func (m *mockRepo) GetOrCreateCustomer(ctx context.Context, providerID uint, name, email, phone string) (*models.Customer, error) {
	args := m.Called(ctx, providerID, name, email, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *mockRepo) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockRepo) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockRepo) ListActiveBookings(ctx context.Context, providerID uint, from, to, now time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, providerID, from, to, now)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockRepo) ListBookingsForDay(ctx context.Context, providerID uint, from, to time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, providerID, from, to)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockRepo) InsertBookingIfCapacityAvailable(ctx context.Context, b *models.Booking, capacity int, dayLimit scheduling.DayLimit, dayStart, dayEnd time.Time) error {
	return m.Called(ctx, b, capacity, dayLimit, dayStart, dayEnd).Error(0)
}

func (m *mockRepo) RescheduleBookingIfAvailable(ctx context.Context, bookingID uint, newStart, newEnd time.Time, capacity int, dayLimit scheduling.DayLimit, dayStart, dayEnd time.Time) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, newStart, newEnd, capacity, dayLimit, dayStart, dayEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockRepo) ConfirmBookingIfPending(ctx context.Context, bookingID uint, now time.Time) (bool, error) {
	args := m.Called(ctx, bookingID, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) CancelBooking(ctx context.Context, bookingID uint, reason string, now time.Time) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, reason, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockRepo) CancelExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) SetDepositReference(ctx context.Context, bookingID uint, reference string) error {
	return m.Called(ctx, bookingID, reference).Error(0)
}

// ---------------------------------------------------------------
// mock payment gateway
// ---------------------------------------------------------------

type mockGateway struct {
	mock.Mock
}

var _ scheduling.PaymentGateway = (*mockGateway)(nil)

func (m *mockGateway) CreateDepositIntent(ctx context.Context, b *models.Booking, amount float64, payeeAccount string) (*scheduling.DepositIntent, error) {
	args := m.Called(ctx, b, amount, payeeAccount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduling.DepositIntent), args.Error(1)
}

// ---------------------------------------------------------------
// in-memory repository for concurrency tests
// ---------------------------------------------------------------

// memRepo keeps bookings in memory and serializes the capacity check and
// insert the same way the database transaction does, so racing reserves
// resolve to exactly one winner.
type memRepo struct {
	mu       sync.Mutex
	provider *models.Provider
	hours    map[int]*models.RecurringHours
	customs  []models.CustomTimeSlot
	blocked  []models.BlockedDate
	bookings []models.Booking
	nextID   uint
}

var _ scheduling.Repository = (*memRepo)(nil)

func newMemRepo(provider *models.Provider) *memRepo {
	return &memRepo{
		provider: provider,
		hours:    map[int]*models.RecurringHours{},
		nextID:   1,
	}
}

func (r *memRepo) setHours(h *models.RecurringHours) {
	r.hours[h.Weekday] = h
}

func (r *memRepo) GetProviderByID(_ context.Context, id uint) (*models.Provider, error) {
	if r.provider == nil || r.provider.ID != id {
		return nil, &scheduling.NotFoundError{Entity: "provider", Ref: "?"}
	}
	return r.provider, nil
}

func (r *memRepo) GetProviderBySlug(_ context.Context, slug string) (*models.Provider, error) {
	if r.provider == nil || r.provider.Slug != slug {
		return nil, &scheduling.NotFoundError{Entity: "provider", Ref: slug}
	}
	return r.provider, nil
}

func (r *memRepo) GetRecurringHours(_ context.Context, _ uint, weekday int) (*models.RecurringHours, error) {
	return r.hours[weekday], nil
}

func (r *memRepo) ListRecurringHours(_ context.Context, _ uint) ([]models.RecurringHours, error) {
	var out []models.RecurringHours
	for _, h := range r.hours {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })
	return out, nil
}

func (r *memRepo) UpsertRecurringHours(_ context.Context, entry *models.RecurringHours) error {
	r.hours[entry.Weekday] = entry
	return nil
}

func (r *memRepo) ListCustomSlots(_ context.Context, _ uint, from, to time.Time) ([]models.CustomTimeSlot, error) {
	var out []models.CustomTimeSlot
	for _, c := range r.customs {
		if c.StartTime.Before(to) && c.EndTime.After(from) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memRepo) CreateCustomSlot(_ context.Context, slot *models.CustomTimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot.ID = r.nextID
	r.nextID++
	r.customs = append(r.customs, *slot)
	return nil
}

func (r *memRepo) DeleteCustomSlot(_ context.Context, _ uint, slotID uint) error {
	for i, c := range r.customs {
		if c.ID == slotID {
			r.customs = append(r.customs[:i], r.customs[i+1:]...)
			return nil
		}
	}
	return &scheduling.NotFoundError{Entity: "custom_slot", Ref: "?"}
}

func (r *memRepo) IsDateBlocked(_ context.Context, providerID uint, dayStart, dayEnd time.Time) (bool, error) {
	for _, bd := range r.blocked {
		if bd.ProviderID == providerID && !bd.Date.Before(dayStart) && bd.Date.Before(dayEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) ListBlockedDates(_ context.Context, providerID uint) ([]models.BlockedDate, error) {
	var out []models.BlockedDate
	for _, bd := range r.blocked {
		if bd.ProviderID == providerID {
			out = append(out, bd)
		}
	}
	return out, nil
}

func (r *memRepo) CreateBlockedDate(_ context.Context, entry *models.BlockedDate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = r.nextID
	r.nextID++
	r.blocked = append(r.blocked, *entry)
	return nil
}

func (r *memRepo) DeleteBlockedDate(_ context.Context, _ uint, blockID uint) error {
	for i, bd := range r.blocked {
		if bd.ID == blockID {
			r.blocked = append(r.blocked[:i], r.blocked[i+1:]...)
			return nil
		}
	}
	return &scheduling.NotFoundError{Entity: "blocked_date", Ref: "?"}
}

func (r *memRepo) GetOrCreateCustomer(_ context.Context, providerID uint, name, email, phone string) (*models.Customer, error) {
	return &models.Customer{ProviderID: providerID, Name: name, Email: email, Phone: phone}, nil
}

func (r *memRepo) GetBooking(_ context.Context, id uint) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bookings {
		if r.bookings[i].ID == id {
			b := r.bookings[i]
			return &b, nil
		}
	}
	return nil, &scheduling.NotFoundError{Entity: "booking", Ref: "?"}
}

func (r *memRepo) GetBookingByReference(_ context.Context, reference string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bookings {
		if r.bookings[i].Reference == reference {
			b := r.bookings[i]
			return &b, nil
		}
	}
	return nil, &scheduling.NotFoundError{Entity: "booking", Ref: reference}
}

func (r *memRepo) ListActiveBookings(_ context.Context, providerID uint, from, to, now time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeLocked(providerID, from, to, now), nil
}

func (r *memRepo) activeLocked(providerID uint, from, to, now time.Time) []models.Booking {
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ProviderID != providerID {
			continue
		}
		if !scheduling.Status(b.Status).Active() {
			continue
		}
		if scheduling.Status(b.Status) == scheduling.StatusPendingDeposit &&
			b.HoldExpiresAt != nil && b.HoldExpiresAt.Before(now) {
			continue
		}
		if b.StartTime.Before(to) && b.EndTime.After(from) {
			out = append(out, b)
		}
	}
	return out
}

func (r *memRepo) ListBookingsForDay(_ context.Context, providerID uint, from, to time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ProviderID == providerID && b.StartTime.Before(to) && !b.StartTime.Before(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memRepo) InsertBookingIfCapacityAvailable(_ context.Context, b *models.Booking, capacity int, dayLimit scheduling.DayLimit, dayStart, dayEnd time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	overlapping := 0
	for _, existing := range r.activeLocked(b.ProviderID, b.StartTime, b.EndTime, now) {
		if existing.StartTime.Before(b.EndTime) && existing.EndTime.After(b.StartTime) {
			overlapping++
		}
	}
	if overlapping >= capacity {
		return &scheduling.SlotUnavailableError{Start: b.StartTime, End: b.EndTime}
	}
	if dayLimit.Reached(len(r.activeLocked(b.ProviderID, dayStart, dayEnd, now))) {
		return &scheduling.PlanLimitExceededError{MaxPerDay: dayLimit.Max()}
	}

	b.ID = r.nextID
	r.nextID++
	r.bookings = append(r.bookings, *b)
	return nil
}

func (r *memRepo) RescheduleBookingIfAvailable(_ context.Context, bookingID uint, newStart, newEnd time.Time, capacity int, dayLimit scheduling.DayLimit, dayStart, dayEnd time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i := range r.bookings {
		if r.bookings[i].ID == bookingID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &scheduling.NotFoundError{Entity: "booking", Ref: "?"}
	}

	now := time.Now()
	overlapping := 0
	for _, existing := range r.activeLocked(r.bookings[idx].ProviderID, newStart, newEnd, now) {
		if existing.ID != bookingID &&
			existing.StartTime.Before(newEnd) && existing.EndTime.After(newStart) {
			overlapping++
		}
	}
	if overlapping >= capacity {
		return nil, &scheduling.SlotUnavailableError{Start: newStart, End: newEnd}
	}

	r.bookings[idx].StartTime = newStart
	r.bookings[idx].EndTime = newEnd
	b := r.bookings[idx]
	return &b, nil
}

func (r *memRepo) ConfirmBookingIfPending(_ context.Context, bookingID uint, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bookings {
		if r.bookings[i].ID == bookingID &&
			scheduling.Status(r.bookings[i].Status) == scheduling.StatusPendingDeposit {
			r.bookings[i].Status = string(scheduling.StatusConfirmed)
			r.bookings[i].DepositPaid = true
			r.bookings[i].ConfirmedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) CancelBooking(_ context.Context, bookingID uint, reason string, now time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bookings {
		if r.bookings[i].ID != bookingID {
			continue
		}
		if !scheduling.Status(r.bookings[i].Status).Active() {
			return nil, &scheduling.InvalidStateError{Current: scheduling.Status(r.bookings[i].Status)}
		}
		r.bookings[i].Status = string(scheduling.StatusCancelled)
		r.bookings[i].CancelReason = reason
		r.bookings[i].CancelledAt = &now
		b := r.bookings[i]
		return &b, nil
	}
	return nil, &scheduling.NotFoundError{Entity: "booking", Ref: "?"}
}

func (r *memRepo) CancelExpiredHolds(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.bookings {
		if scheduling.Status(r.bookings[i].Status) == scheduling.StatusPendingDeposit &&
			r.bookings[i].HoldExpiresAt != nil && r.bookings[i].HoldExpiresAt.Before(now) {
			r.bookings[i].Status = string(scheduling.StatusCancelled)
			r.bookings[i].CancelReason = scheduling.ReasonDepositTimeout
			cancelledAt := now
			r.bookings[i].CancelledAt = &cancelledAt
			n++
		}
	}
	return n, nil
}

func (r *memRepo) SetDepositReference(_ context.Context, bookingID uint, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bookings {
		if r.bookings[i].ID == bookingID {
			r.bookings[i].DepositRef = reference
			return nil
		}
	}
	return &scheduling.NotFoundError{Entity: "booking", Ref: "?"}
}
