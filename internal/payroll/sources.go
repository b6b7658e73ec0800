package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The five collaborator services the engine aggregates inputs from. Every
// call is explicitly tenant-scoped; implementations carry their own
// timeouts. Test doubles implement the same interfaces.

type EmployeeData struct {
	ID                 uuid.UUID       `json:"id"`
	FullName           string          `json:"full_name"`
	TaxID              string          `json:"tax_id"`
	RegistrationNumber string          `json:"registration_number"`
	DepartmentName     string          `json:"department_name"`
	PositionName       string          `json:"position_name"`
	Status             string          `json:"status"`
	BaseSalary         decimal.Decimal `json:"base_salary"`
	DependentsCount    int             `json:"dependents_count"`
	HireDate           *time.Time      `json:"hire_date,omitempty"`
}

type AttendanceSummary struct {
	RegularHours     decimal.Decimal `json:"regular_hours"`
	Overtime50Hours  decimal.Decimal `json:"overtime_50_hours"`
	Overtime100Hours decimal.Decimal `json:"overtime_100_hours"`
	NightShiftHours  decimal.Decimal `json:"night_shift_hours"`
	AbsenceDays      decimal.Decimal `json:"absence_days"`
	WorkedDays       int             `json:"worked_days"`
	TotalDaysInMonth int             `json:"total_days_in_month"`
}

type VacationEvent struct {
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	TotalDays     int             `json:"total_days"`
	VacationPay   decimal.Decimal `json:"vacation_pay"`
	VacationBonus decimal.Decimal `json:"vacation_bonus"`
	SoldDays      int             `json:"sold_days"`
	Status        string          `json:"status"`
}

// BenefitItem is an opaque line from the benefits service: its rule engine
// (salary caps, age brackets) already ran. Category matches the payroll
// item types.
type BenefitItem struct {
	Category         string              `json:"category"` // EARNING | DEDUCTION
	BenefitTypeName  string              `json:"benefit_type_name"`
	FixedValue       decimal.NullDecimal `json:"fixed_value"`
	Percentage       decimal.NullDecimal `json:"percentage"`
	CalculatedAmount decimal.Decimal     `json:"calculated_amount"`
}

type BenefitStatement struct {
	Items           []BenefitItem   `json:"items"`
	TotalEarnings   decimal.Decimal `json:"total_earnings"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
}

type PerformanceBonus struct {
	BonusAmount      decimal.Decimal `json:"bonus_amount"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	Reason           string          `json:"reason"`
}

type EmployeeSource interface {
	GetEmployee(ctx context.Context, tenantID, employeeID string) (EmployeeData, error)
	ListActiveEmployees(ctx context.Context, tenantID string) ([]EmployeeData, error)
}

type AttendanceSource interface {
	GetMonthSummary(ctx context.Context, tenantID, employeeID string, month, year int) (AttendanceSummary, error)
}

type VacationSource interface {
	// Returns the vacation events overlapping the competency. An empty
	// slice is the normal "no vacation this month" case, not an error.
	GetVacationsForPeriod(ctx context.Context, tenantID, employeeID string, month, year int) ([]VacationEvent, error)
}

type BenefitsSource interface {
	CalculateForPayroll(ctx context.Context, tenantID, employeeID string, month, year int, baseSalary decimal.Decimal) (BenefitStatement, error)
}

type PerformanceSource interface {
	GetBonusForPeriod(ctx context.Context, tenantID, employeeID string, month, year int) (PerformanceBonus, error)
}

// Sources bundles the five collaborators for injection into the aggregator.
type Sources struct {
	Employee    EmployeeSource
	Attendance  AttendanceSource
	Vacation    VacationSource
	Benefits    BenefitsSource
	Performance PerformanceSource
}
