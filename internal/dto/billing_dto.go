package dto

// BatchRunResponse summarizes one batch engine invocation.
type BatchRunResponse struct {
	Processed      int `json:"processed"`
	Succeeded      int `json:"succeeded"`
	Failed         int `json:"failed"`
	Skipped        int `json:"skipped"`
	Escalated      int `json:"escalated"`
	RequiresAction int `json:"requires_action"`
	Errored        int `json:"errored"`
}

// SweepRunResponse summarizes one compliance sweep invocation.
type SweepRunResponse struct {
	OverdueEntities int `json:"overdue_entities"`
	BlockedPersons  int `json:"blocked_persons"`
	Errored         int `json:"errored"`
}
