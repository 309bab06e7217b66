package models

import "time"

// RecurringHours is one weekday entry of a provider's weekly schedule.
// Times are local wall-clock "15:04" strings in the provider's timezone.
type RecurringHours struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ProviderID uint `gorm:"index:idx_recurring_provider_weekday,unique" json:"provider_id"`

	Weekday int `gorm:"index:idx_recurring_provider_weekday,unique" json:"weekday"`

	StartTime string `gorm:"size:5" json:"start_time"`
	EndTime   string `gorm:"size:5" json:"end_time"`

	SlotDurationMin int  `gorm:"default:30" json:"slot_duration_min"`
	MaxConcurrent   int  `gorm:"default:1" json:"max_concurrent"`
	Active          bool `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
