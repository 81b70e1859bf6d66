package dto

import (
	"time"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// RegistrationRequest is the role-tagged registration payload. Exactly one
// of the role sections must be present, matching the Role discriminator.
type RegistrationRequest struct {
	Role     string `json:"role" validate:"required,oneof=contact_staff non_contact_staff leadership guardian"`
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`

	ContactStaff    *ContactStaffPayload    `json:"contact_staff,omitempty"`
	NonContactStaff *NonContactStaffPayload `json:"non_contact_staff,omitempty"`
	Leadership      *LeadershipPayload      `json:"leadership,omitempty"`
	Guardian        *GuardianPayload        `json:"guardian,omitempty"`
}

// ContactStaffPayload carries the fields required for staff with direct
// contact with minors.
type ContactStaffPayload struct {
	LegalID      string `json:"legal_id" validate:"required,max=64"`
	Position     string `json:"position" validate:"required,max=128"`
	Site         string `json:"site" validate:"required,max=255"`
	Schedule     string `json:"schedule" validate:"required,max=255"`
	HasClearance bool   `json:"has_clearance"`
}

// NonContactStaffPayload carries the fields for staff without direct contact.
type NonContactStaffPayload struct {
	Area string `json:"area" validate:"required,max=128"`
}

// LeadershipPayload carries the fields for leadership roles.
type LeadershipPayload struct {
	Position         string `json:"position" validate:"required,max=128"`
	HasDirectContact bool   `json:"has_direct_contact"`
	HasClearance     bool   `json:"has_clearance"`
}

// GuardianPayload carries the dependents registered by a guardian.
type GuardianPayload struct {
	Dependents []DependentPayload `json:"dependents" validate:"dive"`
}

// DependentPayload describes one minor attached to a guardian.
type DependentPayload struct {
	FullName  string    `json:"full_name" validate:"required,min=2,max=255"`
	BirthDate time.Time `json:"birth_date" validate:"required"`
	Notes     string    `json:"notes" validate:"omitempty,max=2000"`
}

// PersonResponse is the serialized representation of a registered person.
type PersonResponse struct {
	ID               uint                `json:"id"`
	EntityID         uint                `json:"entity_id"`
	Role             string              `json:"role"`
	FullName         string              `json:"full_name"`
	Email            string              `json:"email"`
	Status           string              `json:"status"`
	HasDirectContact bool                `json:"has_direct_contact"`
	ClearanceOnFile  bool                `json:"clearance_on_file"`
	DeadlineAt       *time.Time          `json:"deadline_at,omitempty"`
	Dependents       []DependentResponse `json:"dependents,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

// DependentResponse is the serialized representation of a dependent.
type DependentResponse struct {
	ID        uint      `json:"id"`
	FullName  string    `json:"full_name"`
	BirthDate time.Time `json:"birth_date"`
}

// NewPersonResponse converts a person model into a DTO.
func NewPersonResponse(person models.Person) PersonResponse {
	response := PersonResponse{
		ID:               person.ID,
		EntityID:         person.EntityID,
		Role:             person.Role,
		FullName:         person.FullName,
		Email:            person.Email,
		Status:           person.Status,
		HasDirectContact: person.HasDirectContact,
		ClearanceOnFile:  person.ClearanceOnFile,
		DeadlineAt:       person.DeadlineAt,
		CreatedAt:        person.CreatedAt,
	}
	for _, dependent := range person.Dependents {
		response.Dependents = append(response.Dependents, DependentResponse{
			ID:        dependent.ID,
			FullName:  dependent.FullName,
			BirthDate: dependent.BirthDate,
		})
	}
	return response
}
