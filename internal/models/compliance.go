package models

import "time"

// Compliance dimensions tracked per entity.
const (
	DimensionChannel         = "channel"
	DimensionRiskMap         = "risk_map"
	DimensionCriminalRecords = "criminal_records"
)

// ComplianceRecord tracks per-entity onboarding requirements and the single
// compliance deadline. DeadlineAt is set at most once; the first unmet
// requirement wins and the date never moves afterwards.
type ComplianceRecord struct {
	ID                       uint       `gorm:"primaryKey" json:"id"`
	EntityID                 uint       `gorm:"uniqueIndex;not null" json:"entity_id"`
	ChannelDone              bool       `gorm:"not null;default:false" json:"channel_done"`
	ChannelPostponed         bool       `gorm:"not null;default:false" json:"channel_postponed"`
	RiskMapDone              bool       `gorm:"not null;default:false" json:"risk_map_done"`
	RiskMapPostponed         bool       `gorm:"not null;default:false" json:"risk_map_postponed"`
	CriminalRecordsDone      bool       `gorm:"not null;default:false" json:"criminal_records_done"`
	CriminalRecordsPostponed bool       `gorm:"not null;default:false" json:"criminal_records_postponed"`
	DeadlineAt               *time.Time `json:"deadline_at,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// Overdue reports whether the deadline has passed at the given instant.
func (r ComplianceRecord) Overdue(now time.Time) bool {
	return r.DeadlineAt != nil && now.After(*r.DeadlineAt)
}
