package models

import "time"

// CustomTimeSlot overrides recurring hours for one absolute window.
// Inside its window it is the only source of truth: it may narrow,
// widen or fully replace the recurring schedule for that stretch.
type CustomTimeSlot struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ProviderID uint `gorm:"index" json:"provider_id"`

	StartTime time.Time `gorm:"index" json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	DurationMin int `json:"duration_min"`
	MaxBookings int `gorm:"default:1" json:"max_bookings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
