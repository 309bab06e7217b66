package models

import "time"

// BlockedDate closes one whole calendar day for a provider regardless of
// recurring hours or custom slots. Date is midnight of that day in the
// provider's timezone.
type BlockedDate struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ProviderID uint `gorm:"index:idx_blocked_provider_date,unique" json:"provider_id"`

	Date   time.Time `gorm:"index:idx_blocked_provider_date,unique" json:"date"`
	Reason string    `gorm:"size:100" json:"reason"`

	CreatedAt time.Time `json:"created_at"`
}
