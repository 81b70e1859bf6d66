package models

import "time"

// Entity represents an organization onboarded into the compliance program.
type Entity struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	Sector           string    `gorm:"size:128" json:"sector"`
	DelegateName     string    `gorm:"size:255" json:"delegate_name"`
	DelegateEmail    string    `gorm:"size:255;not null" json:"delegate_email"`
	Channel          string    `gorm:"size:64;default:email" json:"channel"`
	StripeCustomerID string    `gorm:"size:64;index" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
