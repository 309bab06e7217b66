package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bookora/booking-scheduler/internal/audit"
	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
	"github.com/bookora/booking-scheduler/internal/models"
)

var testClock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testProvider(plan string) *models.Provider {
	return &models.Provider{
		ID:       1,
		Name:     "Test Provider",
		Slug:     "test-provider",
		Plan:     plan,
		Timezone: "UTC",
	}
}

func mondayHours() *models.RecurringHours {
	return &models.RecurringHours{
		ID:              1,
		ProviderID:      1,
		Weekday:         1,
		StartTime:       "09:00",
		EndTime:         "17:00",
		SlotDurationMin: 60,
		MaxConcurrent:   1,
		Active:          true,
	}
}

func newTestReserve(repo scheduling.Repository, gateway scheduling.PaymentGateway) *Reserve {
	uc := NewReserve(
		repo,
		scheduling.NewPolicy(),
		gateway,
		audit.NewDispatcher(nil, zerolog.Nop()),
		nil,
		15*time.Minute,
		zerolog.Nop(),
	)
	uc.now = func() time.Time { return testClock }
	return uc
}

func reserveInput(t string) ReserveInput {
	return ReserveInput{
		ProviderSlug:  "test-provider",
		Date:          "2026-03-02",
		Time:          t,
		DurationMin:   60,
		CustomerName:  "Ana",
		CustomerEmail: "ana@example.com",
		ServiceName:   "Consultation",
	}
}

func TestReserve(t *testing.T) {
	t.Run("confirms immediately when no deposit is required", func(t *testing.T) {
		repo := newMemRepo(testProvider("STANDARD"))
		repo.setHours(mondayHours())

		uc := newTestReserve(repo, &mockGateway{})
		out, err := uc.Execute(context.Background(), reserveInput("10:00"))

		assert.NoError(t, err)
		assert.Equal(t, string(scheduling.StatusConfirmed), out.Booking.Status)
		assert.Nil(t, out.Booking.HoldExpiresAt)
		assert.Nil(t, out.Deposit)
		assert.NotEmpty(t, out.Booking.Reference)
		assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), out.Booking.StartTime)
		assert.Equal(t, time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC), out.Booking.EndTime)
	})

	t.Run("creates a deposit hold when the provider requires one", func(t *testing.T) {
		provider := testProvider("PROFESSIONAL")
		provider.DepositAmount = 25
		provider.PaymentAccount = "acc-123"
		repo := newMemRepo(provider)
		repo.setHours(mondayHours())

		gateway := &mockGateway{}
		gateway.On("CreateDepositIntent", mock.Anything, mock.Anything, 25.0, "acc-123").
			Return(&scheduling.DepositIntent{
				Reference:   "pref-1",
				CheckoutURL: "https://pay.example/pref-1",
				Amount:      25,
			}, nil)

		uc := newTestReserve(repo, gateway)
		out, err := uc.Execute(context.Background(), reserveInput("10:00"))

		assert.NoError(t, err)
		assert.Equal(t, string(scheduling.StatusPendingDeposit), out.Booking.Status)
		if assert.NotNil(t, out.Booking.HoldExpiresAt) {
			assert.Equal(t, testClock.Add(15*time.Minute), *out.Booking.HoldExpiresAt)
		}
		if assert.NotNil(t, out.Deposit) {
			assert.Equal(t, "pref-1", out.Deposit.Reference)
		}

		stored, err := repo.GetBookingByReference(context.Background(), out.Booking.Reference)
		assert.NoError(t, err)
		assert.Equal(t, "pref-1", stored.DepositRef)
		gateway.AssertExpectations(t)
	})

	t.Run("keeps the booking when the deposit intent fails", func(t *testing.T) {
		provider := testProvider("PROFESSIONAL")
		provider.DepositAmount = 25
		repo := newMemRepo(provider)
		repo.setHours(mondayHours())

		gateway := &mockGateway{}
		gateway.On("CreateDepositIntent", mock.Anything, mock.Anything, 25.0, "").
			Return(nil, &scheduling.GatewayError{Op: "create_preference", Err: errors.New("timeout")})

		uc := newTestReserve(repo, gateway)
		out, err := uc.Execute(context.Background(), reserveInput("10:00"))

		var gwErr *scheduling.GatewayError
		assert.ErrorAs(t, err, &gwErr)
		if assert.NotNil(t, out) {
			assert.Equal(t, string(scheduling.StatusPendingDeposit), out.Booking.Status)
			assert.Nil(t, out.Deposit)
		}

		// The reservation must survive the gateway failure.
		stored, err := repo.GetBookingByReference(context.Background(), out.Booking.Reference)
		assert.NoError(t, err)
		assert.Equal(t, string(scheduling.StatusPendingDeposit), stored.Status)
	})

	t.Run("rejects a slot already at capacity", func(t *testing.T) {
		repo := newMemRepo(testProvider("STANDARD"))
		repo.setHours(mondayHours())

		uc := newTestReserve(repo, &mockGateway{})
		_, err := uc.Execute(context.Background(), reserveInput("10:00"))
		assert.NoError(t, err)

		_, err = uc.Execute(context.Background(), reserveInput("10:00"))
		var slotErr *scheduling.SlotUnavailableError
		assert.ErrorAs(t, err, &slotErr)
	})

	t.Run("rejects a start inside the minimum advance window", func(t *testing.T) {
		provider := testProvider("STANDARD")
		provider.MinAdvanceMinutes = 60
		repo := newMemRepo(provider)
		repo.setHours(mondayHours())

		uc := newTestReserve(repo, &mockGateway{})
		uc.now = func() time.Time { return time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC) }

		_, err := uc.Execute(context.Background(), reserveInput("10:00"))
		var slotErr *scheduling.SlotUnavailableError
		assert.ErrorAs(t, err, &slotErr)
	})

	t.Run("rejects a duration the plan does not allow", func(t *testing.T) {
		repo := newMemRepo(testProvider("STANDARD"))
		repo.setHours(mondayHours())

		uc := newTestReserve(repo, &mockGateway{})
		in := reserveInput("10:00")
		in.DurationMin = 90

		_, err := uc.Execute(context.Background(), in)
		var durErr *scheduling.UnsupportedDurationError
		assert.ErrorAs(t, err, &durErr)
	})

	t.Run("closes the day at the plan booking cap", func(t *testing.T) {
		repo := newMemRepo(testProvider("STANDARD"))
		repo.setHours(mondayHours())

		uc := newTestReserve(repo, &mockGateway{})
		starts := []string{"09:00", "10:00", "11:00", "12:00", "13:00"}
		for _, s := range starts {
			_, err := uc.Execute(context.Background(), reserveInput(s))
			assert.NoError(t, err)
		}

		_, err := uc.Execute(context.Background(), reserveInput("14:00"))
		var limitErr *scheduling.PlanLimitExceededError
		assert.ErrorAs(t, err, &limitErr)
		assert.Equal(t, 5, limitErr.MaxPerDay)
	})

	t.Run("unknown provider slug is a not-found", func(t *testing.T) {
		repo := newMemRepo(testProvider("STANDARD"))
		uc := newTestReserve(repo, &mockGateway{})

		in := reserveInput("10:00")
		in.ProviderSlug = "nobody"
		_, err := uc.Execute(context.Background(), in)

		var nfErr *scheduling.NotFoundError
		assert.ErrorAs(t, err, &nfErr)
	})
}

func TestReserveConcurrent(t *testing.T) {
	t.Run("exactly one of many racing reserves wins a capacity-1 slot", func(t *testing.T) {
		repo := newMemRepo(testProvider("BUSINESS"))
		repo.setHours(mondayHours())

		uc := newTestReserve(repo, &mockGateway{})

		const attempts = 20
		var wg sync.WaitGroup
		results := make([]error, attempts)

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				in := reserveInput("10:00")
				in.CustomerEmail = fmt.Sprintf("c%d@example.com", i)
				_, err := uc.Execute(context.Background(), in)
				results[i] = err
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range results {
			if err == nil {
				winners++
				continue
			}
			var slotErr *scheduling.SlotUnavailableError
			var schedErr *scheduling.SchedulingError
			assert.True(t, errors.As(err, &slotErr) || errors.As(err, &schedErr),
				"unexpected error: %v", err)
		}
		assert.Equal(t, 1, winners)

		active, err := repo.ListActiveBookings(
			context.Background(), 1,
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
			testClock,
		)
		assert.NoError(t, err)
		assert.Len(t, active, 1)
	})
}
