package dto

import (
	"time"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// InviteCreateRequest is the payload to issue a registration link.
type InviteCreateRequest struct {
	EntityID  uint   `json:"entity_id" validate:"required"`
	RoleScope string `json:"role_scope" validate:"required,oneof=contact_staff non_contact_staff leadership guardian"`
	TTLDays   int    `json:"ttl_days" validate:"omitempty,min=1,max=90"`
}

// InviteResponse describes an issued invitation token.
type InviteResponse struct {
	Token     string    `json:"token"`
	EntityID  uint      `json:"entity_id"`
	RoleScope string    `json:"role_scope"`
	SingleUse bool      `json:"single_use"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewInviteResponse converts a token model into a DTO.
func NewInviteResponse(token models.InviteToken) InviteResponse {
	return InviteResponse{
		Token:     token.Token,
		EntityID:  token.EntityID,
		RoleScope: token.RoleScope,
		SingleUse: token.SingleUse,
		ExpiresAt: token.ExpiresAt,
	}
}

// InviteResolveResponse is returned when a registration link is opened.
type InviteResolveResponse struct {
	EntityID   uint   `json:"entity_id"`
	EntityName string `json:"entity_name"`
	RoleScope  string `json:"role_scope"`
}
