package models

import "time"

// Provider is the tenant: the account that exposes a public booking page.
type Provider struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
	Slug string `gorm:"size:100;uniqueIndex;not null" json:"slug"`

	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Phone        string `gorm:"size:20" json:"phone"`

	Plan     string `gorm:"size:20;default:'STANDARD'" json:"plan"`
	Timezone string `gorm:"size:50" json:"timezone"`

	MinAdvanceMinutes int `gorm:"default:0" json:"min_advance_minutes"`

	// DepositAmount > 0 means every reservation starts as a deposit hold.
	DepositAmount  float64 `json:"deposit_amount"`
	PaymentAccount string  `gorm:"size:100" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
