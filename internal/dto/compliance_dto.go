package dto

import (
	"time"

	"github.com/noah-isme/tutela-go-api/internal/models"
)

// ComplianceStatusResponse summarizes an entity's compliance record.
type ComplianceStatusResponse struct {
	EntityID                 uint       `json:"entity_id"`
	ChannelDone              bool       `json:"channel_done"`
	ChannelPostponed         bool       `json:"channel_postponed"`
	RiskMapDone              bool       `json:"risk_map_done"`
	RiskMapPostponed         bool       `json:"risk_map_postponed"`
	CriminalRecordsDone      bool       `json:"criminal_records_done"`
	CriminalRecordsPostponed bool       `json:"criminal_records_postponed"`
	DeadlineAt               *time.Time `json:"deadline_at,omitempty"`
	Overdue                  bool       `json:"overdue"`
}

// NewComplianceStatusResponse converts a compliance record into a DTO.
func NewComplianceStatusResponse(record models.ComplianceRecord, now time.Time) ComplianceStatusResponse {
	return ComplianceStatusResponse{
		EntityID:                 record.EntityID,
		ChannelDone:              record.ChannelDone,
		ChannelPostponed:         record.ChannelPostponed,
		RiskMapDone:              record.RiskMapDone,
		RiskMapPostponed:         record.RiskMapPostponed,
		CriminalRecordsDone:      record.CriminalRecordsDone,
		CriminalRecordsPostponed: record.CriminalRecordsPostponed,
		DeadlineAt:               record.DeadlineAt,
		Overdue:                  record.Overdue(now),
	}
}
