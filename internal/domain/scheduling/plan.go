package scheduling

// ===============================
// Subscription tiers
// ===============================

type Tier string

const (
	TierStandard     Tier = "STANDARD"
	TierProfessional Tier = "PROFESSIONAL"
	TierBusiness     Tier = "BUSINESS"
)

// DayLimit is a tagged daily booking cap. The unlimited variant never
// participates in numeric comparisons.
type DayLimit struct {
	n         int
	unlimited bool
}

func LimitPerDay(n int) DayLimit {
	return DayLimit{n: n}
}

func UnlimitedPerDay() DayLimit {
	return DayLimit{unlimited: true}
}

func (d DayLimit) IsUnlimited() bool { return d.unlimited }

// Max is only meaningful for limited variants.
func (d DayLimit) Max() int { return d.n }

func (d DayLimit) Reached(count int) bool {
	if d.unlimited {
		return false
	}
	return count >= d.n
}

// ===============================
// Plan constraints
// ===============================

type PlanConstraints struct {
	AllowedDurations  []int
	MaxBookingsPerDay DayLimit
	CustomSlots       bool
}

func (c PlanConstraints) AllowsDuration(durationMin int) bool {
	for _, d := range c.AllowedDurations {
		if d == durationMin {
			return true
		}
	}
	return false
}

// Policy resolves a provider's tier into its constraints. The table is
// built once and never mutated afterwards.
type Policy struct {
	table map[Tier]PlanConstraints
}

func NewPolicy() *Policy {
	return &Policy{
		table: map[Tier]PlanConstraints{
			TierStandard: {
				AllowedDurations:  []int{30, 60},
				MaxBookingsPerDay: LimitPerDay(5),
				CustomSlots:       false,
			},
			TierProfessional: {
				AllowedDurations:  []int{15, 30, 45, 60, 90},
				MaxBookingsPerDay: LimitPerDay(20),
				CustomSlots:       true,
			},
			TierBusiness: {
				AllowedDurations:  []int{15, 30, 45, 60, 90, 120},
				MaxBookingsPerDay: UnlimitedPerDay(),
				CustomSlots:       true,
			},
		},
	}
}

// Resolve falls back to the entry tier for unknown values so a bad row
// never widens a provider's limits.
func (p *Policy) Resolve(tier Tier) PlanConstraints {
	c, ok := p.table[tier]
	if !ok {
		c = p.table[TierStandard]
	}

	out := c
	out.AllowedDurations = append([]int(nil), c.AllowedDurations...)
	return out
}
