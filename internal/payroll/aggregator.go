package payroll

import (
	"context"
	"sync"
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/shared/contextutil"

	"go.uber.org/zap"
)

// Source names used in failure records and warning notes.
const (
	SourceEmployee    = "employee"
	SourceAttendance  = "attendance"
	SourceVacation    = "vacation"
	SourceBenefits    = "benefits"
	SourcePerformance = "performance"
)

// SourceFailure captures one collaborator call that did not produce data.
// A timed-out call is recorded the same way as any other failure.
type SourceFailure struct {
	Source string
	Err    error
}

// InputBundle is the best-effort set of numeric inputs for one employee's
// payroll. Nil slots mean the source failed (see Failures); an empty
// vacation slice means the source answered "none", which is absence, not
// failure. The calculator decides which missing slots are fatal.
type InputBundle struct {
	Employee   *EmployeeData
	Attendance *AttendanceSummary
	Vacations  []VacationEvent
	Benefits   *BenefitStatement
	Bonus      *PerformanceBonus
	Failures   []SourceFailure
}

// Failed reports whether the named source is among the failures.
func (b *InputBundle) Failed(source string) bool {
	for _, f := range b.Failures {
		if f.Source == source {
			return true
		}
	}
	return false
}

// Aggregator fans out to the collaborator services and assembles the
// bundle. Employee master data is fetched first because the benefits
// calculation needs the base salary; the remaining four fetches run
// concurrently, each under its own timeout.
type Aggregator struct {
	sources Sources
	timeout time.Duration
	logger  *zap.Logger
}

func NewAggregator(sources Sources, timeout time.Duration, logger ...*zap.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	l := zap.L().Named("payroll.aggregator")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payroll.aggregator")
	}
	return &Aggregator{sources: sources, timeout: timeout, logger: l}
}

func (a *Aggregator) Collect(ctx context.Context, tenantID, employeeID string, month, year int) InputBundle {
	log := contextutil.GetLogger(ctx, a.logger)
	bundle := InputBundle{}

	employee, err := a.fetchEmployee(ctx, tenantID, employeeID)
	if err != nil {
		log.Warn("employee source failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		bundle.Failures = append(bundle.Failures, SourceFailure{Source: SourceEmployee, Err: err})
		// Without master data nothing downstream can run; the calculator
		// turns this into a fatal MissingRequiredInput.
		return bundle
	}
	bundle.Employee = &employee

	var (
		wg sync.WaitGroup

		attendance     AttendanceSummary
		attendanceErr  error
		vacations      []VacationEvent
		vacationsErr   error
		benefits       BenefitStatement
		benefitsErr    error
		bonus          PerformanceBonus
		performanceErr error
	)

	// Each goroutine owns exactly one result slot; no locking needed
	// beyond the join.
	wg.Add(4)
	go func() {
		defer wg.Done()
		fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		attendance, attendanceErr = a.sources.Attendance.GetMonthSummary(fetchCtx, tenantID, employeeID, month, year)
	}()
	go func() {
		defer wg.Done()
		fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		vacations, vacationsErr = a.sources.Vacation.GetVacationsForPeriod(fetchCtx, tenantID, employeeID, month, year)
	}()
	go func() {
		defer wg.Done()
		fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		benefits, benefitsErr = a.sources.Benefits.CalculateForPayroll(fetchCtx, tenantID, employeeID, month, year, employee.BaseSalary)
	}()
	go func() {
		defer wg.Done()
		fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		bonus, performanceErr = a.sources.Performance.GetBonusForPeriod(fetchCtx, tenantID, employeeID, month, year)
	}()
	wg.Wait()

	if attendanceErr != nil {
		bundle.Failures = append(bundle.Failures, SourceFailure{Source: SourceAttendance, Err: attendanceErr})
	} else {
		bundle.Attendance = &attendance
	}

	if vacationsErr != nil {
		bundle.Failures = append(bundle.Failures, SourceFailure{Source: SourceVacation, Err: vacationsErr})
	} else {
		bundle.Vacations = vacations
	}

	if benefitsErr != nil {
		bundle.Failures = append(bundle.Failures, SourceFailure{Source: SourceBenefits, Err: benefitsErr})
	} else {
		bundle.Benefits = &benefits
	}

	if performanceErr != nil {
		bundle.Failures = append(bundle.Failures, SourceFailure{Source: SourcePerformance, Err: performanceErr})
	} else {
		bundle.Bonus = &bonus
	}

	if len(bundle.Failures) > 0 {
		names := make([]string, len(bundle.Failures))
		for i, f := range bundle.Failures {
			names[i] = f.Source
		}
		log.Warn("input aggregation degraded",
			zap.String("employee_id", employeeID),
			zap.Strings("failed_sources", names),
		)
	}

	return bundle
}

func (a *Aggregator) fetchEmployee(ctx context.Context, tenantID, employeeID string) (EmployeeData, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.sources.Employee.GetEmployee(fetchCtx, tenantID, employeeID)
}
