package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	payrollerrors "github.com/jdeveloperweb/axonrh-sub004/internal/payroll/errors"
	"github.com/jdeveloperweb/axonrh-sub004/internal/shared/contextutil"
	"github.com/jdeveloperweb/axonrh-sub004/internal/taxbracket"
	taxbracketerrors "github.com/jdeveloperweb/axonrh-sub004/internal/taxbracket/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CalculationParams are the tenant/legal tuning knobs of the engine. The
// defaults mirror CLT rules: 220h reference month, 50%/100% overtime,
// 20% night-shift premium, 8% FGTS, R$189.59 per dependent on the IRRF
// base.
type CalculationParams struct {
	MonthlyHours       decimal.Decimal
	Overtime50Rate     decimal.Decimal
	Overtime100Rate    decimal.Decimal
	NightShiftRate     decimal.Decimal
	FgtsRate           decimal.Decimal
	DependentAllowance decimal.Decimal
	DefaultDaysInMonth int
}

func DefaultCalculationParams() CalculationParams {
	return CalculationParams{
		MonthlyHours:       decimal.NewFromInt(220),
		Overtime50Rate:     decimal.RequireFromString("1.50"),
		Overtime100Rate:    decimal.RequireFromString("2.00"),
		NightShiftRate:     decimal.RequireFromString("0.20"),
		FgtsRate:           decimal.RequireFromString("0.08"),
		DependentAllowance: decimal.RequireFromString("189.59"),
		DefaultDaysInMonth: 30,
	}
}

// Calculator turns an input bundle plus the tenant's tax tables into a
// complete, itemized payroll. It is pure with respect to persistence: the
// service layer owns transactions and versioning.
type Calculator struct {
	brackets taxbracket.Resolver
	params   CalculationParams
	logger   *zap.Logger
}

func NewCalculator(resolver taxbracket.Resolver, params CalculationParams, logger ...*zap.Logger) *Calculator {
	l := zap.L().Named("payroll.calculator")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payroll.calculator")
	}
	return &Calculator{brackets: resolver, params: params, logger: l}
}

// itemBuilder accumulates payslip lines in computation order. Insertion
// order drives payslip display, so earnings are always appended before
// deductions.
type itemBuilder struct {
	tenantID uuid.UUID
	items    []PayrollItem
	order    int
}

func (b *itemBuilder) add(itemType, code, description string, reference, quantity, percentage decimal.NullDecimal, amount decimal.Decimal) *PayrollItem {
	b.order++
	b.items = append(b.items, PayrollItem{
		ID:             uuid.New(),
		TenantID:       b.tenantID,
		Type:           itemType,
		Code:           code,
		Description:    description,
		ReferenceValue: reference,
		Quantity:       quantity,
		Percentage:     percentage,
		Amount:         amount,
		SortOrder:      b.order,
	})
	return &b.items[len(b.items)-1]
}

func nullDec(v decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: v, Valid: true}
}

var noDec = decimal.NullDecimal{}

// Calculate produces the itemized payroll for one employee and competency.
// Missing employee master data is fatal; the other sources degrade to
// zeroed, flagged categories. Tax types resolve independently: a missing
// bracket table zeroes only that tax and flags the item, while a malformed
// table aborts the whole calculation.
func (c *Calculator) Calculate(ctx context.Context, tenantID string, bundle InputBundle, month, year int) (*Payroll, error) {
	log := contextutil.GetLogger(ctx, c.logger)

	tenantUUID, err := uuid.Parse(tenantID)
	if err != nil {
		return nil, payrollerrors.ErrInvalidTenantID
	}

	if bundle.Employee == nil {
		return nil, payrollerrors.ErrMissingRequiredInput
	}
	employee := *bundle.Employee

	baseSalary := employee.BaseSalary
	hourlyRate := baseSalary.DivRound(c.params.MonthlyHours, 4)

	payroll := &Payroll{
		ID:                 uuid.New(),
		TenantID:           tenantUUID,
		EmployeeID:         employee.ID,
		EmployeeName:       employee.FullName,
		EmployeeTaxID:      employee.TaxID,
		RegistrationNumber: employee.RegistrationNumber,
		DepartmentName:     employee.DepartmentName,
		PositionName:       employee.PositionName,
		ReferenceMonth:     month,
		ReferenceYear:      year,
		BaseSalary:         baseSalary,
		Status:             StatusCalculated,
		CalculationVersion: 1,
	}

	b := &itemBuilder{tenantID: tenantUUID}
	attendance := bundle.Attendance

	// === Earnings ===

	// 1. Base salary, prorated when the employee did not work the whole
	// month (mid-month hire, leave of absence).
	daysInMonth, workedDays := c.effectiveDays(attendance, employee, month, year)
	proportionalBase := baseSalary
	description := "Salário Base"
	if workedDays < daysInMonth {
		proportionalBase = baseSalary.
			DivRound(decimal.NewFromInt(int64(daysInMonth)), 4).
			Mul(decimal.NewFromInt(int64(workedDays))).
			Round(2)
		description = fmt.Sprintf("Salário Proporcional (%d dias)", workedDays)
	}
	b.add(ItemTypeEarning, CodeBaseSalary, description,
		nullDec(baseSalary), nullDec(decimal.NewFromInt(int64(workedDays))), noDec, proportionalBase)

	// 2. Overtime and night-shift premiums.
	if attendance != nil {
		if attendance.Overtime50Hours.IsPositive() {
			amount := hourlyRate.Mul(c.params.Overtime50Rate).Mul(attendance.Overtime50Hours).Round(2)
			b.add(ItemTypeEarning, CodeOvertime50, "Horas Extras 50%",
				nullDec(hourlyRate), nullDec(attendance.Overtime50Hours), nullDec(decimal.NewFromInt(50)), amount)
		}
		if attendance.Overtime100Hours.IsPositive() {
			amount := hourlyRate.Mul(c.params.Overtime100Rate).Mul(attendance.Overtime100Hours).Round(2)
			b.add(ItemTypeEarning, CodeOvertime100, "Horas Extras 100%",
				nullDec(hourlyRate), nullDec(attendance.Overtime100Hours), nullDec(decimal.NewFromInt(100)), amount)
		}
		if attendance.NightShiftHours.IsPositive() {
			amount := hourlyRate.Mul(c.params.NightShiftRate).Mul(attendance.NightShiftHours).Round(2)
			b.add(ItemTypeEarning, CodeNightShift, "Adicional Noturno 20%",
				nullDec(hourlyRate), nullDec(attendance.NightShiftHours), nullDec(decimal.NewFromInt(20)), amount)
		}
	}

	// 3. Vacation pay and the constitutional one-third bonus.
	for _, vacation := range bundle.Vacations {
		if vacation.VacationPay.IsPositive() {
			b.add(ItemTypeEarning, CodeVacationPay,
				fmt.Sprintf("Férias (%d dias)", vacation.TotalDays),
				noDec, nullDec(decimal.NewFromInt(int64(vacation.TotalDays))), noDec, vacation.VacationPay)
		}
		if vacation.VacationBonus.IsPositive() {
			b.add(ItemTypeEarning, CodeVacationBonus, "1/3 Constitucional de Férias",
				noDec, noDec, nullDec(decimal.RequireFromString("33.33")), vacation.VacationBonus)
		}
	}

	// 4. Benefit earnings, opaque lines from the benefits service.
	if bundle.Benefits != nil {
		for _, item := range bundle.Benefits.Items {
			if item.Category != ItemTypeEarning {
				continue
			}
			b.add(ItemTypeEarning, CodeBenefitEarning, item.BenefitTypeName,
				item.FixedValue, noDec, item.Percentage, item.CalculatedAmount)
		}
	}

	// 5. Performance bonus and commission.
	if bundle.Bonus != nil {
		if bundle.Bonus.BonusAmount.IsPositive() {
			label := "Bônus - Performance"
			if bundle.Bonus.Reason != "" {
				label = "Bônus - " + bundle.Bonus.Reason
			}
			b.add(ItemTypeEarning, CodeBonus, label, noDec, noDec, noDec, bundle.Bonus.BonusAmount)
		}
		if bundle.Bonus.CommissionAmount.IsPositive() {
			b.add(ItemTypeEarning, CodeCommission, "Comissão", noDec, noDec, noDec, bundle.Bonus.CommissionAmount)
		}
	}

	// 6. Gross earnings, the tax base before absence adjustment.
	grossEarnings := decimal.Zero
	for _, item := range b.items {
		grossEarnings = grossEarnings.Add(item.Amount)
	}

	// Absences reduce the taxable base; the deduction line itself is
	// appended after the tax lines to keep the payslip order stable.
	// The deduction is capped at the gross: a heavily prorated month can
	// carry more absence days than paid value, and a payroll never owes a
	// negative wage or a negative FGTS base.
	absenceValue := decimal.Zero
	var absenceDays decimal.Decimal
	if attendance != nil && attendance.AbsenceDays.IsPositive() {
		absenceDays = attendance.AbsenceDays
		dailyRate := baseSalary.DivRound(decimal.NewFromInt(int64(c.params.DefaultDaysInMonth)), 4)
		absenceValue = dailyRate.Mul(absenceDays).Round(2)
		if absenceValue.GreaterThan(grossEarnings) {
			absenceValue = grossEarnings
		}
	}
	taxBase := grossEarnings.Sub(absenceValue)

	refDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	var warnings []string

	// 7. Social security (INSS) on the adjusted gross.
	inssAmount, inssWarning, err := c.assessTax(ctx, tenantID, taxbracket.TaxTypeINSS, taxBase, refDate)
	if err != nil {
		return nil, err
	}
	inssItem := b.add(ItemTypeDeduction, CodeINSS, "INSS",
		nullDec(taxBase), noDec, inssAmount.percentage, inssAmount.tax)
	if inssWarning != "" {
		inssItem.Notes = strPtr(inssWarning)
		warnings = append(warnings, zeroedTaxWarning(taxbracket.TaxTypeINSS))
	}

	// 8. Income tax withholding (IRRF) on gross minus INSS minus the
	// dependent allowance.
	irrfBase := taxBase.Sub(inssAmount.tax)
	if employee.DependentsCount > 0 {
		irrfBase = irrfBase.Sub(c.params.DependentAllowance.Mul(decimal.NewFromInt(int64(employee.DependentsCount))))
	}
	if irrfBase.IsNegative() {
		irrfBase = decimal.Zero
	}
	irrfAmount, irrfWarning, err := c.assessTax(ctx, tenantID, taxbracket.TaxTypeIRRF, irrfBase, refDate)
	if err != nil {
		return nil, err
	}
	irrfItem := b.add(ItemTypeDeduction, CodeIRRF, "IRRF",
		nullDec(irrfBase), noDec, irrfAmount.percentage, irrfAmount.tax)
	if irrfWarning != "" {
		irrfItem.Notes = strPtr(irrfWarning)
		warnings = append(warnings, zeroedTaxWarning(taxbracket.TaxTypeIRRF))
	}

	// 9. Benefit deductions.
	if bundle.Benefits != nil {
		for _, item := range bundle.Benefits.Items {
			if item.Category != ItemTypeDeduction {
				continue
			}
			b.add(ItemTypeDeduction, CodeBenefitDeduction, item.BenefitTypeName,
				item.FixedValue, noDec, item.Percentage, item.CalculatedAmount)
		}
	}

	// 10. Absences.
	if absenceValue.IsPositive() {
		dailyRate := baseSalary.DivRound(decimal.NewFromInt(int64(c.params.DefaultDaysInMonth)), 4)
		b.add(ItemTypeDeduction, CodeAbsence,
			fmt.Sprintf("Desconto por Faltas (%s dias)", absenceDays.String()),
			nullDec(dailyRate), nullDec(absenceDays), noDec, absenceValue)
	}

	// 11/12. Totals and FGTS. FGTS is employer-paid: stored alongside the
	// payroll, absent from the deduction lines and the net arithmetic.
	payroll.Items = b.items
	payroll.RecalculateTotals()
	payroll.FgtsAmount = taxBase.Mul(c.params.FgtsRate).Round(2)

	// Degraded sources are distinguishable from correct zeros: each failed
	// optional source and each unconfigured tax table leaves a note.
	for _, failure := range bundle.Failures {
		warnings = append(warnings, fmt.Sprintf("fonte indisponível: %s", failure.Source))
	}
	if len(warnings) > 0 {
		payroll.Notes = strPtr(strings.Join(warnings, "; "))
	}

	log.Info("payroll calculated",
		zap.String("employee_id", employee.ID.String()),
		zap.Int("month", month),
		zap.Int("year", year),
		zap.String("gross", payroll.TotalEarnings.String()),
		zap.String("net", payroll.NetSalary.String()),
		zap.Int("degraded_sources", len(bundle.Failures)),
	)

	return payroll, nil
}

type taxResult struct {
	tax        decimal.Decimal
	percentage decimal.NullDecimal
}

// assessTax resolves the tenant's table for one tax type and applies it.
// An unconfigured table is non-fatal for the payroll: the tax is zeroed
// and the warning is returned for flagging. A malformed table, or any
// other resolver failure, is fatal.
func (c *Calculator) assessTax(ctx context.Context, tenantID, taxType string, base decimal.Decimal, refDate time.Time) (taxResult, string, error) {
	if base.IsNegative() {
		base = decimal.Zero
	}

	table, err := c.brackets.Resolve(ctx, tenantID, taxType, refDate)
	if err != nil {
		if errors.Is(err, taxbracketerrors.ErrNoBracketsConfigured) {
			return taxResult{tax: decimal.Zero}, fmt.Sprintf("tabela de %s não configurada; valor zerado", taxType), nil
		}
		return taxResult{}, "", err
	}

	assessment, err := table.Assess(base)
	if err != nil {
		return taxResult{}, "", err
	}

	return taxResult{
		tax:        assessment.Tax,
		percentage: nullDec(assessment.Bracket.Rate),
	}, "", nil
}

// effectiveDays determines proration: worked days from the attendance
// summary when present, else inferred from a mid-month hire date, else the
// full month.
func (c *Calculator) effectiveDays(attendance *AttendanceSummary, employee EmployeeData, month, year int) (daysInMonth, workedDays int) {
	daysInMonth = c.params.DefaultDaysInMonth
	if attendance != nil && attendance.TotalDaysInMonth > 0 {
		daysInMonth = attendance.TotalDaysInMonth
	}

	workedDays = daysInMonth
	if attendance != nil && attendance.WorkedDays > 0 {
		workedDays = attendance.WorkedDays
	} else if employee.HireDate != nil {
		startOfMonth := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		endOfMonth := startOfMonth.AddDate(0, 1, -1)
		if employee.HireDate.After(startOfMonth) && !employee.HireDate.After(endOfMonth) {
			workedDays = daysInMonth - employee.HireDate.Day() + 1
		}
	}

	if workedDays > daysInMonth {
		workedDays = daysInMonth
	}
	return daysInMonth, workedDays
}

func strPtr(s string) *string {
	return &s
}

func zeroedTaxWarning(taxType string) string {
	return fmt.Sprintf("imposto %s zerado: tabela não configurada", taxType)
}
