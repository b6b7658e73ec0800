package payroll

type ProcessPayrollRequest struct {
	EmployeeID     string `json:"employee_id" binding:"required,uuid"`
	ReferenceMonth int    `json:"reference_month" binding:"required,min=1,max=12"`
	ReferenceYear  int    `json:"reference_year" binding:"required,min=2000,max=2100"`
}

type CreateRunRequest struct {
	ReferenceMonth int      `json:"reference_month" binding:"required,min=1,max=12"`
	ReferenceYear  int      `json:"reference_year" binding:"required,min=2000,max=2100"`
	EmployeeIDs    []string `json:"employee_ids" binding:"omitempty,dive,uuid"`
}

type CloseCompetencyRequest struct {
	ReferenceMonth int `json:"reference_month" binding:"required,min=1,max=12"`
	ReferenceYear  int `json:"reference_year" binding:"required,min=2000,max=2100"`
}

type PayrollItemResponse struct {
	ID             string  `json:"id"`
	Type           string  `json:"type"`
	Code           string  `json:"code"`
	Description    string  `json:"description"`
	ReferenceValue *string `json:"reference_value,omitempty"`
	Quantity       *string `json:"quantity,omitempty"`
	Percentage     *string `json:"percentage,omitempty"`
	Amount         string  `json:"amount"`
	Notes          *string `json:"notes,omitempty"`
}

type PayrollResponse struct {
	ID                 string                `json:"id"`
	TenantID           string                `json:"tenant_id"`
	EmployeeID         string                `json:"employee_id"`
	EmployeeName       string                `json:"employee_name"`
	EmployeeTaxID      string                `json:"employee_tax_id,omitempty"`
	RegistrationNumber string                `json:"registration_number,omitempty"`
	DepartmentName     string                `json:"department_name,omitempty"`
	PositionName       string                `json:"position_name,omitempty"`
	ReferenceMonth     int                   `json:"reference_month"`
	ReferenceYear      int                   `json:"reference_year"`
	Status             string                `json:"status"`
	BaseSalary         string                `json:"base_salary"`
	TotalEarnings      string                `json:"total_earnings"`
	TotalDeductions    string                `json:"total_deductions"`
	NetSalary          string                `json:"net_salary"`
	FgtsAmount         string                `json:"fgts_amount"`
	CalculationVersion int                   `json:"calculation_version"`
	PayrollRunID       *string               `json:"payroll_run_id,omitempty"`
	Notes              *string               `json:"notes,omitempty"`
	Items              []PayrollItemResponse `json:"items,omitempty"`
}

// PayslipResponse is the printable breakdown of one payroll: earnings and
// deductions split into their own sections with the employer-paid FGTS
// shown outside the net arithmetic.
type PayslipResponse struct {
	PayrollID          string                `json:"payroll_id"`
	EmployeeName       string                `json:"employee_name"`
	EmployeeTaxID      string                `json:"employee_tax_id,omitempty"`
	RegistrationNumber string                `json:"registration_number,omitempty"`
	DepartmentName     string                `json:"department_name,omitempty"`
	PositionName       string                `json:"position_name,omitempty"`
	Competency         string                `json:"competency"`
	Status             string                `json:"status"`
	Earnings           []PayrollItemResponse `json:"earnings"`
	Deductions         []PayrollItemResponse `json:"deductions"`
	TotalEarnings      string                `json:"total_earnings"`
	TotalDeductions    string                `json:"total_deductions"`
	NetSalary          string                `json:"net_salary"`
	FgtsAmount         string                `json:"fgts_amount"`
	CalculationVersion int                   `json:"calculation_version"`
	Notes              *string               `json:"notes,omitempty"`
	GeneratedAt        string                `json:"generated_at"`
}

type RunFailureResponse struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

type RunResponse struct {
	ID              string               `json:"id"`
	TenantID        string               `json:"tenant_id"`
	RunNumber       string               `json:"run_number"`
	ReferenceMonth  int                  `json:"reference_month"`
	ReferenceYear   int                  `json:"reference_year"`
	Status          string               `json:"status"`
	TargetedCount   int                  `json:"targeted_count"`
	ProcessedCount  int                  `json:"processed_count"`
	FailedCount     int                  `json:"failed_count"`
	TotalGross      string               `json:"total_gross"`
	TotalDeductions string               `json:"total_deductions"`
	TotalNet        string               `json:"total_net"`
	TotalFgts       string               `json:"total_fgts"`
	StartedAt       *string              `json:"started_at,omitempty"`
	FinishedAt      *string              `json:"finished_at,omitempty"`
	ClosedAt        *string              `json:"closed_at,omitempty"`
	ClosedBy        *string              `json:"closed_by,omitempty"`
	Failures        []RunFailureResponse `json:"failures,omitempty"`
}
