package taxbracketerrors

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
	ErrInvalidTaxType = apperror.New(
		apperror.CodeInvalidInput,
		"tax type is required",
		http.StatusBadRequest,
	)
	ErrInvalidBracketRange = apperror.New(
		apperror.CodeInvalidInput,
		"bracket max_value must be greater than min_value",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrBracketNotFound = apperror.New(
		apperror.CodeNotFound,
		"tax bracket not found",
		http.StatusNotFound,
	)
	ErrNoBracketsConfigured = apperror.New(
		apperror.CodeUnprocessable,
		"no active tax brackets configured for this tax type and date",
		http.StatusUnprocessableEntity,
	)
	ErrMalformedTable = apperror.New(
		apperror.CodeInvalidState,
		"tax bracket table is malformed: brackets must form a contiguous ascending partition of [0, inf) with an unbounded top bracket",
		http.StatusUnprocessableEntity,
	)
	ErrNegativeBase = apperror.New(
		apperror.CodeInvalidInput,
		"tax base amount cannot be negative",
		http.StatusBadRequest,
	)
)
