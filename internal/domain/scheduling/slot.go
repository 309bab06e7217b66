package scheduling

import "time"

// Slot is a derived, never-persisted bookable interval.
type Slot struct {
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	DurationMin       int       `json:"duration_min"`
	RemainingCapacity int       `json:"remaining_capacity"`
}

// Overlaps reports whether [s.StartTime, s.EndTime) intersects [start, end).
func (s Slot) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && s.EndTime.After(start)
}
