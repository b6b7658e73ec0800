package events

import "time"

const CompetencyClosedTopic = "hr.payroll.competency.closed.v1"

type CompetencyClosedEvent struct {
	EventType      string    `json:"event_type"`
	RequestID      string    `json:"request_id,omitempty"`
	RunID          string    `json:"run_id"`
	TenantID       string    `json:"tenant_id"`
	ReferenceMonth int       `json:"reference_month"`
	ReferenceYear  int       `json:"reference_year"`
	ClosedBy       string    `json:"closed_by"`
	ClosedPayrolls int64     `json:"closed_payrolls"`
	OccurredAt     time.Time `json:"occurred_at"`
}
