package models

import "time"

// InviteToken scopes a registration link to an entity and role.
type InviteToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Token     string     `gorm:"size:64;uniqueIndex;not null" json:"token"`
	EntityID  uint       `gorm:"index;not null" json:"entity_id"`
	RoleScope string     `gorm:"size:32;not null" json:"role_scope"`
	SingleUse bool       `gorm:"not null;default:true" json:"single_use"`
	Active    bool       `gorm:"not null;default:true" json:"active"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Expired reports whether the token lifetime has elapsed at the given instant.
func (t InviteToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
