package models

import "time"

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Reference is the public handle exposed to customers.
	Reference string `gorm:"size:36;uniqueIndex" json:"reference"`

	ProviderID uint     `gorm:"index" json:"provider_id"`
	Provider   Provider `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	CustomerID *uint    `json:"customer_id"`
	Customer   Customer `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"customer"`

	ServiceName string `gorm:"size:100" json:"service_name"`

	StartTime time.Time `gorm:"index" json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Status string `gorm:"size:20;index" json:"status"`

	DepositPaid   bool       `json:"deposit_paid"`
	DepositRef    string     `gorm:"size:100" json:"-"`
	HoldExpiresAt *time.Time `json:"hold_expires_at"`

	CancelReason string     `gorm:"size:30" json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at"`

	Notes string `gorm:"size:255" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
