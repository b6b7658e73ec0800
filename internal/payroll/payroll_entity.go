package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payroll is one employee's result for one competency (month/year) within a
// tenant. Employee identity fields are copied at calculation time, not
// referenced: later employee edits must never rewrite a historical payslip.
type Payroll struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_payroll_tenant_period;index:idx_payroll_employee_period,unique"`
	PayrollRunID *uuid.UUID `gorm:"type:uuid;index"`

	EmployeeID         uuid.UUID `gorm:"type:uuid;not null;index:idx_payroll_employee_period,unique,where:status <> 'CANCELLED'"`
	EmployeeName       string    `gorm:"type:varchar(160);not null"`
	EmployeeTaxID      string    `gorm:"type:varchar(20)"`
	RegistrationNumber string    `gorm:"type:varchar(40)"`
	DepartmentName     string    `gorm:"type:varchar(120)"`
	PositionName       string    `gorm:"type:varchar(120)"`

	ReferenceMonth int `gorm:"not null;index:idx_payroll_tenant_period;index:idx_payroll_employee_period,unique"`
	ReferenceYear  int `gorm:"not null;index:idx_payroll_tenant_period;index:idx_payroll_employee_period,unique"`

	Status string `gorm:"type:varchar(20);not null;default:'DRAFT'"`

	BaseSalary      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalEarnings   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	TotalDeductions decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	NetSalary       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`

	// FGTS is employer-paid: computed from gross earnings, stored for the
	// payslip, never part of the net salary arithmetic.
	FgtsAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`

	CalculationVersion int     `gorm:"not null;default:1"`
	Notes              *string `gorm:"type:text"`

	Items []PayrollItem `gorm:"foreignKey:PayrollID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Payroll) TableName() string {
	return "payrolls"
}

// RecalculateTotals derives the three totals from the item list. Net salary
// is always earnings minus deductions, decimal-exact.
func (p *Payroll) RecalculateTotals() {
	earnings := decimal.Zero
	deductions := decimal.Zero
	for _, item := range p.Items {
		switch item.Type {
		case ItemTypeEarning:
			earnings = earnings.Add(item.Amount)
		case ItemTypeDeduction:
			deductions = deductions.Add(item.Amount)
		}
	}
	p.TotalEarnings = earnings
	p.TotalDeductions = deductions
	p.NetSalary = earnings.Sub(deductions)
}

// PayrollItem is one payslip line. Items are owned by their payroll and
// regenerated wholesale on every recomputation, never patched in place.
// ReferenceValue/Quantity/Percentage are display and audit fields: the
// realized amount and rate are snapshotted here so the payslip stays
// reproducible even after tax bracket rows are edited.
type PayrollItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PayrollID uuid.UUID `gorm:"type:uuid;not null;index"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`

	Type        string `gorm:"type:varchar(10);not null"` // EARNING | DEDUCTION
	Code        string `gorm:"type:varchar(30);not null"`
	Description string `gorm:"type:varchar(160);not null"`

	ReferenceValue decimal.NullDecimal `gorm:"type:numeric(12,4)"`
	Quantity       decimal.NullDecimal `gorm:"type:numeric(8,2)"`
	Percentage     decimal.NullDecimal `gorm:"type:numeric(7,3)"`
	Amount         decimal.Decimal     `gorm:"type:numeric(12,2);not null"`

	SortOrder int     `gorm:"not null"`
	Notes     *string `gorm:"type:text"`

	CreatedAt time.Time
}

func (PayrollItem) TableName() string {
	return "payroll_items"
}

// PayrollRun is one batch execution for a tenant/competency. Aggregate
// totals mirror its non-cancelled payrolls and are recomputed from the
// children after every change, never drifted incrementally.
type PayrollRun struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index:idx_run_tenant_period;index:idx_run_live_period,unique,where:status <> 'CANCELLED' AND status <> 'CLOSED'"`
	RunNumber string    `gorm:"type:varchar(30);not null"`

	ReferenceMonth int    `gorm:"not null;index:idx_run_tenant_period;index:idx_run_live_period,unique"`
	ReferenceYear  int    `gorm:"not null;index:idx_run_tenant_period;index:idx_run_live_period,unique"`
	Description    string `gorm:"type:varchar(200)"`

	Status string `gorm:"type:varchar(20);not null;default:'OPEN'"`

	TotalEmployees     int `gorm:"not null;default:0"`
	ProcessedEmployees int `gorm:"not null;default:0"`
	FailedEmployees    int `gorm:"not null;default:0"`

	TotalEarnings   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	TotalDeductions decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	TotalNetSalary  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	TotalFgts       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	StartedAt  *time.Time
	FinishedAt *time.Time
	ClosedAt   *time.Time
	ClosedBy   *uuid.UUID `gorm:"type:uuid"`

	Failures []RunFailure `gorm:"foreignKey:PayrollRunID"`
	Payrolls []Payroll    `gorm:"foreignKey:PayrollRunID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PayrollRun) TableName() string {
	return "payroll_runs"
}

// RecalculateSummary folds the given payrolls (the run's children) into the
// run aggregates. Cancelled payrolls are excluded everywhere except the
// total employee count.
func (r *PayrollRun) RecalculateSummary(payrolls []Payroll) {
	earnings := decimal.Zero
	deductions := decimal.Zero
	net := decimal.Zero
	fgts := decimal.Zero
	processed := 0

	for _, p := range payrolls {
		if p.Status == StatusCancelled {
			continue
		}
		processed++
		earnings = earnings.Add(p.TotalEarnings)
		deductions = deductions.Add(p.TotalDeductions)
		net = net.Add(p.NetSalary)
		fgts = fgts.Add(p.FgtsAmount)
	}

	r.ProcessedEmployees = processed
	r.TotalEarnings = earnings
	r.TotalDeductions = deductions
	r.TotalNetSalary = net
	r.TotalFgts = fgts
}

// RunFailure records one employee the batch could not compute a payroll
// for: the audit trail behind the run's failed counter.
type RunFailure struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PayrollRunID uuid.UUID `gorm:"type:uuid;not null;index"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null"`
	EmployeeID   uuid.UUID `gorm:"type:uuid;not null"`
	Reason       string    `gorm:"type:text;not null"`
	CreatedAt    time.Time
}

func (RunFailure) TableName() string {
	return "payroll_run_failures"
}
