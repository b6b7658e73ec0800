package payroll

// Payroll statuses. CANCELLED and CLOSED are terminal; CLOSED is set only
// when the owning run closes its competency.
const (
	StatusDraft      = "DRAFT"
	StatusCalculated = "CALCULATED"
	StatusApproved   = "APPROVED"
	StatusPaid       = "PAID"
	StatusCancelled  = "CANCELLED"
	StatusClosed     = "CLOSED"
)

// Run statuses.
const (
	RunStatusOpen            = "OPEN"
	RunStatusProcessing      = "PROCESSING"
	RunStatusCompleted       = "COMPLETED"
	RunStatusPartiallyFailed = "PARTIALLY_FAILED"
	RunStatusClosed          = "CLOSED"
	RunStatusCancelled       = "CANCELLED"
)

// Item types and codes.
const (
	ItemTypeEarning   = "EARNING"
	ItemTypeDeduction = "DEDUCTION"
)

const (
	CodeBaseSalary       = "BASE_SALARY"
	CodeOvertime50       = "OVERTIME_50"
	CodeOvertime100      = "OVERTIME_100"
	CodeNightShift       = "NIGHT_SHIFT_PREMIUM"
	CodeVacationPay      = "VACATION_PAY"
	CodeVacationBonus    = "VACATION_BONUS"
	CodeBonus            = "BONUS"
	CodeCommission       = "COMMISSION"
	CodeBenefitEarning   = "BENEFIT_EARNING"
	CodeINSS             = "INSS"
	CodeIRRF             = "IRRF"
	CodeBenefitDeduction = "BENEFIT_DEDUCTION"
	CodeAbsence          = "ABSENCE_DEDUCTION"
)

// payrollTransitions is the single source of truth for the payroll state
// machine. Transition checks go through CanTransition, not scattered
// setter-site comparisons.
var payrollTransitions = map[string][]string{
	StatusDraft:      {StatusCalculated, StatusCancelled},
	StatusCalculated: {StatusCalculated, StatusApproved, StatusCancelled, StatusClosed},
	StatusApproved:   {StatusCalculated, StatusPaid, StatusCancelled, StatusClosed},
	StatusPaid:       {StatusClosed},
	StatusCancelled:  {},
	StatusClosed:     {},
}

var runTransitions = map[string][]string{
	RunStatusOpen:            {RunStatusProcessing, RunStatusCancelled},
	RunStatusProcessing:      {RunStatusCompleted, RunStatusPartiallyFailed, RunStatusCancelled},
	RunStatusCompleted:       {RunStatusClosed},
	RunStatusPartiallyFailed: {RunStatusClosed},
	RunStatusClosed:          {},
	RunStatusCancelled:       {},
}

func CanTransition(from, to string) bool {
	for _, allowed := range payrollTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func CanTransitionRun(from, to string) bool {
	for _, allowed := range runTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsRecalculable reports whether a payroll in this status may be
// recomputed. PAID, CANCELLED and CLOSED payrolls are frozen.
func IsRecalculable(status string) bool {
	return CanTransition(status, StatusCalculated) || status == StatusDraft
}
