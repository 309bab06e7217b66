package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookora/booking-scheduler/internal/models"
)

func slotAt(day time.Time, hour, capacity int) Slot {
	return Slot{
		StartTime:         at(day, hour, 0),
		EndTime:           at(day, hour+1, 0),
		DurationMin:       60,
		RemainingCapacity: capacity,
	}
}

func bookingAt(day time.Time, hour int, status Status) models.Booking {
	return models.Booking{
		StartTime: at(day, hour, 0),
		EndTime:   at(day, hour+1, 0),
		Status:    string(status),
	}
}

func TestFilter(t *testing.T) {
	resolver := NewConflictResolver()
	unlimited := UnlimitedPerDay()

	t.Run("booked slot at capacity one is dropped", func(t *testing.T) {
		candidates := []Slot{slotAt(monday, 9, 1), slotAt(monday, 10, 1)}
		existing := []models.Booking{bookingAt(monday, 9, StatusConfirmed)}

		available := resolver.Filter(candidates, existing, unlimited)
		require.Len(t, available, 1)
		assert.Equal(t, at(monday, 10, 0), available[0].StartTime)
	})

	t.Run("pending deposits occupy capacity too", func(t *testing.T) {
		candidates := []Slot{slotAt(monday, 9, 1)}
		existing := []models.Booking{bookingAt(monday, 9, StatusPendingDeposit)}

		assert.Empty(t, resolver.Filter(candidates, existing, unlimited))
	})

	t.Run("capacity decrements instead of dropping", func(t *testing.T) {
		candidates := []Slot{slotAt(monday, 9, 3)}
		existing := []models.Booking{
			bookingAt(monday, 9, StatusConfirmed),
			bookingAt(monday, 9, StatusPendingDeposit),
		}

		available := resolver.Filter(candidates, existing, unlimited)
		require.Len(t, available, 1)
		assert.Equal(t, 1, available[0].RemainingCapacity)
	})

	t.Run("cancelled bookings free their slot", func(t *testing.T) {
		candidates := []Slot{slotAt(monday, 9, 1)}
		existing := []models.Booking{bookingAt(monday, 9, StatusCancelled)}

		assert.Len(t, resolver.Filter(candidates, existing, unlimited), 1)
	})

	t.Run("day cap closes the whole day", func(t *testing.T) {
		candidates := []Slot{slotAt(monday, 9, 1), slotAt(monday, 10, 1), slotAt(monday, 11, 1)}
		existing := []models.Booking{
			bookingAt(monday, 13, StatusConfirmed),
			bookingAt(monday, 14, StatusConfirmed),
		}

		assert.Nil(t, resolver.Filter(candidates, existing, LimitPerDay(2)))
	})

	t.Run("unlimited plan never closes the day", func(t *testing.T) {
		candidates := []Slot{slotAt(monday, 9, 1)}
		var existing []models.Booking
		for hour := 10; hour < 17; hour++ {
			existing = append(existing, bookingAt(monday, hour, StatusConfirmed))
		}

		assert.Len(t, resolver.Filter(candidates, existing, unlimited), 1)
	})

	t.Run("cancelled bookings do not count toward the cap", func(t *testing.T) {
		candidates := []Slot{slotAt(monday, 9, 1)}
		existing := []models.Booking{
			bookingAt(monday, 13, StatusCancelled),
			bookingAt(monday, 14, StatusCancelled),
		}

		assert.Len(t, resolver.Filter(candidates, existing, LimitPerDay(2)), 1)
	})
}
