package booking

import (
	"context"
	"time"

	"github.com/bookora/booking-scheduler/internal/domain/scheduling"
)

// ======================================================
// LIST AVAILABLE SLOTS
// ======================================================

type ListAvailableSlotsInput struct {
	ProviderSlug string
	Date         string // YYYY-MM-DD
	DurationMin  int    // 0 means the provider's configured default
}

type ListAvailableSlots struct {
	repo     scheduling.Repository
	policy   *scheduling.Policy
	gen      *scheduling.SlotGenerator
	resolver *scheduling.ConflictResolver
	now      func() time.Time
}

func NewListAvailableSlots(
	repo scheduling.Repository,
	policy *scheduling.Policy,
) *ListAvailableSlots {
	return &ListAvailableSlots{
		repo:     repo,
		policy:   policy,
		gen:      scheduling.NewSlotGenerator(),
		resolver: scheduling.NewConflictResolver(),
		now:      time.Now,
	}
}

// Execute returns the bookable slots for one provider-day. The result is
// a snapshot: it carries no reservation guarantee.
func (uc *ListAvailableSlots) Execute(
	ctx context.Context,
	in ListAvailableSlotsInput,
) ([]scheduling.Slot, error) {

	provider, err := uc.repo.GetProviderBySlug(ctx, in.ProviderSlug)
	if err != nil {
		return nil, err
	}

	constraints := uc.policy.Resolve(scheduling.Tier(provider.Plan))

	now := uc.now()
	state, err := loadDayState(
		ctx, uc.repo, uc.gen, uc.resolver,
		provider, constraints, in.Date, in.DurationMin, now,
	)
	if err != nil {
		return nil, err
	}

	// Never offer starts in the past or inside the provider's minimum
	// advance window. A start exactly at the cutoff is still bookable,
	// so it stays in the listing.
	cutoff := minAdvanceCutoff(provider, now)
	var slots []scheduling.Slot
	for _, s := range state.available {
		if !s.StartTime.Before(cutoff) {
			slots = append(slots, s)
		}
	}

	return slots, nil
}
