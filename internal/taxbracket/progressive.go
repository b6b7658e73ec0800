package taxbracket

import (
	taxbracketerrors "github.com/jdeveloperweb/axonrh-sub004/internal/taxbracket/errors"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Bracket is one validated row of a progressive table, detached from its
// persistence row so the calculator never touches gorm types.
type Bracket struct {
	Order     int
	Min       decimal.Decimal
	Max       *decimal.Decimal // nil = unbounded top bracket
	Rate      decimal.Decimal  // percent
	Deduction decimal.Decimal
}

// Contains reports whether base falls in [Min, Max). A base exactly on a
// boundary belongs to the upper bracket.
func (b Bracket) Contains(base decimal.Decimal) bool {
	if base.LessThan(b.Min) {
		return false
	}
	return b.Max == nil || base.LessThan(*b.Max)
}

// Table is an ordered, validated bracket list for one tax type. Build it
// through NewTable; a Table that exists is safe to assess any non-negative
// base against.
type Table struct {
	TaxType  string
	Brackets []Bracket
}

// NewTable validates that brackets form a contiguous, ascending partition
// of [0, inf): the first bracket starts at zero, bracket n's min equals
// bracket n-1's max, and the last bracket is unbounded. Malformed tables
// fail here, at load time, rather than truncating tax silently during
// calculation.
func NewTable(taxType string, brackets []Bracket) (Table, error) {
	if len(brackets) == 0 {
		return Table{}, taxbracketerrors.ErrNoBracketsConfigured
	}

	if !brackets[0].Min.IsZero() {
		return Table{}, taxbracketerrors.ErrMalformedTable
	}

	for i, b := range brackets {
		last := i == len(brackets)-1

		if last {
			if b.Max != nil {
				return Table{}, taxbracketerrors.ErrMalformedTable
			}
			continue
		}

		if b.Max == nil {
			return Table{}, taxbracketerrors.ErrMalformedTable
		}
		if !b.Max.GreaterThan(b.Min) {
			return Table{}, taxbracketerrors.ErrMalformedTable
		}
		if !brackets[i+1].Min.Equal(*b.Max) {
			return Table{}, taxbracketerrors.ErrMalformedTable
		}
	}

	return Table{TaxType: taxType, Brackets: brackets}, nil
}

// Assessment is the outcome of applying a table to a base amount. Bracket
// is the marginal bracket used, kept for payslip display and audit.
type Assessment struct {
	Tax     decimal.Decimal
	Bracket Bracket
}

// Assess applies the marginal bracket formula: the single bracket whose
// range contains base supplies one rate and one fixed deduction for the
// whole base (tax = base * rate - deduction, floored at zero). This is the
// IRRF-style withholding semantics, not cumulative per-bracket summation.
func (t Table) Assess(base decimal.Decimal) (Assessment, error) {
	if base.IsNegative() {
		return Assessment{}, taxbracketerrors.ErrNegativeBase
	}

	for _, b := range t.Brackets {
		if !b.Contains(base) {
			continue
		}

		tax := base.Mul(b.Rate).Div(oneHundred).Sub(b.Deduction).Round(2)
		if tax.IsNegative() {
			tax = decimal.Zero
		}
		return Assessment{Tax: tax, Bracket: b}, nil
	}

	// Unreachable for a table built via NewTable: the top bracket is
	// unbounded, so every non-negative base lands somewhere.
	return Assessment{}, taxbracketerrors.ErrMalformedTable
}
