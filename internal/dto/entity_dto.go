package dto

import (
	"time"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// EntityCreateRequest onboards an organization into the program.
type EntityCreateRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=255"`
	Sector          string `json:"sector" validate:"omitempty,max=128"`
	DelegateName    string `json:"delegate_name" validate:"omitempty,max=255"`
	DelegateEmail   string `json:"delegate_email" validate:"required,email,max=255"`
	Channel         string `json:"channel" validate:"omitempty,oneof=email sms"`
	PaymentMethodID string `json:"payment_method_id" validate:"omitempty,max=64"`
}

// EntityResponse is the serialized representation of an entity.
type EntityResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Sector        string    `json:"sector,omitempty"`
	DelegateName  string    `json:"delegate_name,omitempty"`
	DelegateEmail string    `json:"delegate_email"`
	Channel       string    `json:"channel"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewEntityResponse converts an entity model into a DTO.
func NewEntityResponse(entity models.Entity) EntityResponse {
	return EntityResponse{
		ID:            entity.ID,
		Name:          entity.Name,
		Sector:        entity.Sector,
		DelegateName:  entity.DelegateName,
		DelegateEmail: entity.DelegateEmail,
		Channel:       entity.Channel,
		CreatedAt:     entity.CreatedAt,
	}
}
