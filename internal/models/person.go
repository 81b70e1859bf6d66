package models

import "time"

// Role variants for tracked subjects.
const (
	RoleContactStaff    = "contact_staff"
	RoleNonContactStaff = "non_contact_staff"
	RoleLeadership      = "leadership"
	RoleGuardian        = "guardian"
)

// Person status progression. Blocked is reachable only through the
// compliance sweep.
const (
	PersonStatusInvited    = "invited"
	PersonStatusInProgress = "in_progress"
	PersonStatusComplete   = "complete"
	PersonStatusBlocked    = "blocked"
)

// Person is a tracked subject attached to an entity.
type Person struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	EntityID         uint       `gorm:"index;not null" json:"entity_id"`
	Role             string     `gorm:"size:32;not null;index" json:"role"`
	FullName         string     `gorm:"size:255;not null" json:"full_name"`
	Email            string     `gorm:"size:255;index" json:"email"`
	Status           string     `gorm:"size:32;not null;default:invited;index" json:"status"`
	LegalID          string     `gorm:"size:64" json:"legal_id,omitempty"`
	Position         string     `gorm:"size:128" json:"position,omitempty"`
	Site             string     `gorm:"size:255" json:"site,omitempty"`
	Schedule         string     `gorm:"size:255" json:"schedule,omitempty"`
	Area             string     `gorm:"size:128" json:"area,omitempty"`
	HasDirectContact bool       `gorm:"not null;default:false" json:"has_direct_contact"`
	ClearanceOnFile  bool       `gorm:"not null;default:false" json:"clearance_on_file"`
	InviteToken      string     `gorm:"size:64;index" json:"-"`
	DeadlineAt       *time.Time `json:"deadline_at,omitempty"`
	Dependents       []Dependent `json:"dependents,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// RequiresQuiz reports whether the role needs the knowledge test before
// completion.
func (p Person) RequiresQuiz() bool {
	return p.Role == RoleContactStaff || (p.Role == RoleLeadership && p.HasDirectContact)
}

// Dependent is a minor associated with a guardian person.
type Dependent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PersonID  uint      `gorm:"index;not null" json:"person_id"`
	FullName  string    `gorm:"size:255;not null" json:"full_name"`
	BirthDate time.Time `json:"birth_date"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
