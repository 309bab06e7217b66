package scheduling

import (
	"github.com/bookora/booking-scheduler/internal/models"
)

// ======================================================
// CONFLICT RESOLVER
// ======================================================

type ConflictResolver struct{}

func NewConflictResolver() *ConflictResolver {
	return &ConflictResolver{}
}

// Filter removes candidates whose capacity is used up by existing
// PENDING_DEPOSIT/CONFIRMED bookings. Once the plan's daily cap is hit
// the whole day closes: it returns nil regardless of per-slot capacity.
// The bookings slice must be a consistent snapshot of the target day.
func (r *ConflictResolver) Filter(candidates []Slot, existing []models.Booking, limit DayLimit) []Slot {
	if limit.Reached(ActiveCount(existing)) {
		return nil
	}

	var available []Slot
	for _, slot := range candidates {
		remaining := slot.RemainingCapacity
		for _, b := range existing {
			if !Status(b.Status).Active() {
				continue
			}
			if slot.Overlaps(b.StartTime, b.EndTime) {
				remaining--
			}
		}
		if remaining > 0 {
			slot.RemainingCapacity = remaining
			available = append(available, slot)
		}
	}

	return available
}

// ActiveCount counts bookings that still occupy capacity.
func ActiveCount(bookings []models.Booking) int {
	n := 0
	for _, b := range bookings {
		if Status(b.Status).Active() {
			n++
		}
	}
	return n
}
