package scheduling

import (
	"sort"
	"time"

	"github.com/bookora/booking-scheduler/internal/models"
)

// ======================================================
// SLOT GENERATOR
// ======================================================

// GenerateInput carries everything needed to derive one day's candidate
// slots. Date must be midnight of the target day in the provider's
// timezone; CustomSlots are the entries whose window intersects that day.
// A zero DurationMin tiles each window with its own configured length.
type GenerateInput struct {
	Date        time.Time
	DurationMin int
	Blocked     bool
	Recurring   *models.RecurringHours
	CustomSlots []models.CustomTimeSlot
	Constraints PlanConstraints
}

type SlotGenerator struct{}

func NewSlotGenerator() *SlotGenerator {
	return &SlotGenerator{}
}

// window is an open bookable stretch before tiling. durationMin is the
// window's own slot length, used when the caller requested none.
type window struct {
	start       time.Time
	end         time.Time
	capacity    int
	durationMin int
}

// Generate merges recurring hours and custom overrides into candidate
// slots of the requested duration. A blocked date or a day with no
// sources yields an empty list, not an error. Returned slots never
// overlap.
func (g *SlotGenerator) Generate(in GenerateInput) ([]Slot, error) {
	if in.DurationMin != 0 && !in.Constraints.AllowsDuration(in.DurationMin) {
		return nil, &UnsupportedDurationError{
			DurationMin: in.DurationMin,
			Allowed:     in.Constraints.AllowedDurations,
		}
	}

	if in.Blocked {
		return nil, nil
	}

	dayStart := in.Date
	dayEnd := in.Date.AddDate(0, 0, 1)

	var windows []window

	if w, ok := recurringWindow(in.Recurring, dayStart); ok {
		// A custom entry suppresses the recurring schedule inside its
		// whole window, even where the entry itself offers nothing.
		carved := []window{w}
		for _, c := range in.CustomSlots {
			carved = subtract(carved, c.StartTime, c.EndTime)
		}
		windows = append(windows, carved...)
	}

	windows = append(windows, resolveCustomWindows(in.CustomSlots, dayStart, dayEnd)...)

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].start.Before(windows[j].start)
	})

	var slots []Slot
	for _, w := range windows {
		durationMin := in.DurationMin
		if durationMin == 0 {
			durationMin = w.durationMin
		}
		if durationMin <= 0 {
			if len(in.Constraints.AllowedDurations) == 0 {
				continue
			}
			durationMin = in.Constraints.AllowedDurations[0]
		}
		duration := time.Duration(durationMin) * time.Minute

		// Tile from the window start; a trailing remainder shorter than
		// the duration is dropped, never rounded or padded.
		for cur := w.start; !cur.Add(duration).After(w.end); cur = cur.Add(duration) {
			slots = append(slots, Slot{
				StartTime:         cur,
				EndTime:           cur.Add(duration),
				DurationMin:       durationMin,
				RemainingCapacity: w.capacity,
			})
		}
	}

	return slots, nil
}

// resolveCustomWindows clips custom entries to the day and resolves
// overlaps between them: the most recently created entry wins, clipping
// earlier ones.
func resolveCustomWindows(customs []models.CustomTimeSlot, dayStart, dayEnd time.Time) []window {
	ordered := append([]models.CustomTimeSlot(nil), customs...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	var out []window
	for i, c := range ordered {
		start, end := c.StartTime, c.EndTime
		if start.Before(dayStart) {
			start = dayStart
		}
		if end.After(dayEnd) {
			end = dayEnd
		}
		if !start.Before(end) {
			continue
		}

		capacity := c.MaxBookings
		if capacity < 1 {
			capacity = 1
		}

		frags := []window{{start: start, end: end, capacity: capacity, durationMin: c.DurationMin}}
		for _, later := range ordered[i+1:] {
			frags = subtract(frags, later.StartTime, later.EndTime)
		}
		out = append(out, frags...)
	}

	return out
}

// subtract removes [cutStart, cutEnd) from every window, splitting where
// the cut lands in the middle.
func subtract(windows []window, cutStart, cutEnd time.Time) []window {
	var out []window
	for _, w := range windows {
		if !cutStart.Before(w.end) || !cutEnd.After(w.start) {
			out = append(out, w)
			continue
		}
		if cutStart.After(w.start) {
			out = append(out, window{start: w.start, end: cutStart, capacity: w.capacity, durationMin: w.durationMin})
		}
		if cutEnd.Before(w.end) {
			out = append(out, window{start: cutEnd, end: w.end, capacity: w.capacity, durationMin: w.durationMin})
		}
	}
	return out
}

func recurringWindow(rh *models.RecurringHours, day time.Time) (window, bool) {
	if rh == nil || !rh.Active || rh.StartTime == "" || rh.EndTime == "" {
		return window{}, false
	}

	start, err := atTime(day, rh.StartTime)
	if err != nil {
		return window{}, false
	}
	end, err := atTime(day, rh.EndTime)
	if err != nil || !start.Before(end) {
		return window{}, false
	}

	capacity := rh.MaxConcurrent
	if capacity < 1 {
		capacity = 1
	}

	return window{start: start, end: end, capacity: capacity, durationMin: rh.SlotDurationMin}, true
}

// atTime resolves a "15:04" wall-clock string on the given day, in the
// day's location.
func atTime(day time.Time, hm string) (time.Time, error) {
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(
		day.Year(), day.Month(), day.Day(),
		t.Hour(), t.Minute(), 0, 0,
		day.Location(),
	), nil
}
