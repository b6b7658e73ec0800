package events

import "time"

const PayrollRunFinishedTopic = "hr.payroll.run.finished.v1"

type PayrollRunFinishedEvent struct {
	EventType      string    `json:"event_type"`
	RequestID      string    `json:"request_id,omitempty"`
	RunID          string    `json:"run_id"`
	TenantID       string    `json:"tenant_id"`
	ReferenceMonth int       `json:"reference_month"`
	ReferenceYear  int       `json:"reference_year"`
	Status         string    `json:"status"`
	Targeted       int       `json:"targeted"`
	Processed      int       `json:"processed"`
	Failed         int       `json:"failed"`
	OccurredAt     time.Time `json:"occurred_at"`
}
