package payrollerrors

import (
	"net/http"

	"github.com/jdeveloperweb/axonrh-sub004/internal/shared/apperror"
)

var (
	ErrInvalidTenantID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid tenant id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidCompetency = apperror.New(
		apperror.CodeInvalidInput,
		"reference month must be 1-12 and year within a sane range",
		http.StatusBadRequest,
	)
	ErrPayrollNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll not found",
		http.StatusNotFound,
	)
	ErrRunNotFound = apperror.New(
		apperror.CodeNotFound,
		"no payroll run found for this competency",
		http.StatusNotFound,
	)
	ErrMissingRequiredInput = apperror.New(
		apperror.CodeUnprocessable,
		"employee master data is unavailable; payroll cannot be calculated",
		http.StatusUnprocessableEntity,
	)
	ErrDuplicateRun = apperror.New(
		apperror.CodeConflict,
		"a non-cancelled payroll run already exists for this competency",
		http.StatusConflict,
	)
	ErrRunNotReady = apperror.New(
		apperror.CodeInvalidState,
		"payroll run is not ready to close: it must have finished processing at least one employee",
		http.StatusBadRequest,
	)
	ErrPayrollLocked = apperror.New(
		apperror.CodeInvalidState,
		"payroll is locked: its competency is closed or its status is terminal",
		http.StatusConflict,
	)
	ErrRunNotCancellable = apperror.New(
		apperror.CodeInvalidState,
		"payroll run can only be cancelled while open or processing",
		http.StatusBadRequest,
	)
	ErrNoEmployeesTargeted = apperror.New(
		apperror.CodeUnprocessable,
		"no employees targeted for this payroll run",
		http.StatusUnprocessableEntity,
	)
	ErrEmployeeSourceUnavailable = apperror.New(
		apperror.CodeUnprocessable,
		"employee service is unavailable; cannot resolve run targets",
		http.StatusUnprocessableEntity,
	)
)
