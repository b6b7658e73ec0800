package events

import "time"

const PayrollCalculatedTopic = "hr.payroll.calculated.v1"

type PayrollCalculatedEvent struct {
	EventType          string    `json:"event_type"`
	RequestID          string    `json:"request_id,omitempty"`
	PayrollID          string    `json:"payroll_id"`
	TenantID           string    `json:"tenant_id"`
	EmployeeID         string    `json:"employee_id"`
	ReferenceMonth     int       `json:"reference_month"`
	ReferenceYear      int       `json:"reference_year"`
	NetSalary          string    `json:"net_salary"`
	CalculationVersion int       `json:"calculation_version"`
	OccurredAt         time.Time `json:"occurred_at"`
}
