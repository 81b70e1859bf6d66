package models

import "time"

// Payment status values for a billing account.
const (
	PaymentStatusReminded = "reminded"
	PaymentStatusFailed   = "failed"
	PaymentStatusPaid     = "paid"
)

// Account standing values.
const (
	AccountStatusActive      = "active"
	AccountStatusGracePeriod = "grace_period"
)

// BillingAccount carries the payment collection state for one entity.
// RetryCount only increases and is capped by the engine; reaching the cap
// with a failing charge moves the account into grace period exactly once.
type BillingAccount struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	EntityID         uint       `gorm:"uniqueIndex;not null" json:"entity_id"`
	StripeCustomerID string     `gorm:"size:64" json:"-"`
	PaymentMethodID  string     `gorm:"size:64" json:"-"`
	AmountCents      int64      `gorm:"not null" json:"amount_cents"`
	Currency         string     `gorm:"size:8;default:eur" json:"currency"`
	DueDate          time.Time  `gorm:"not null;index" json:"due_date"`
	PaymentStatus    string     `gorm:"size:16;not null;default:reminded;index" json:"payment_status"`
	RetryCount       int        `gorm:"not null;default:0" json:"retry_count"`
	LastRetryDate    *time.Time `json:"last_retry_date,omitempty"`
	AccountStatus    string     `gorm:"size:16;not null;default:active;index" json:"account_status"`
	GracePeriodStart *time.Time `json:"grace_period_start,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Invoice records a settled charge against an entity.
type Invoice struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EntityID    uint      `gorm:"index;not null" json:"entity_id"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	Currency    string    `gorm:"size:8;default:eur" json:"currency"`
	ChargeID    string    `gorm:"size:128;uniqueIndex" json:"charge_id"`
	PaidAt      time.Time `json:"paid_at"`
	CreatedAt   time.Time `json:"created_at"`
}
