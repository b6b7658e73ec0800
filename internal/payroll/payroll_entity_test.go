package payroll_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/jdeveloperweb/axonrh-sub004/internal/payroll"

	"github.com/stretchr/testify/assert"
)

// The one-live-payroll-per-period and one-live-run-per-period constraints
// are tenant-scoped: the tenant id has to be part of both unique indexes or
// two tenants could block each other's competencies.
func TestUniqueIndexesIncludeTenant(t *testing.T) {
	gormTag := func(entity interface{}, field string) string {
		f, ok := reflect.TypeOf(entity).FieldByName(field)
		assert.True(t, ok, "field %s missing", field)
		return f.Tag.Get("gorm")
	}

	t.Run("payroll period index", func(t *testing.T) {
		for _, field := range []string{"TenantID", "EmployeeID", "ReferenceMonth", "ReferenceYear"} {
			tag := gormTag(payroll.Payroll{}, field)
			assert.True(t, strings.Contains(tag, "idx_payroll_employee_period"),
				"%s not part of the period index: %s", field, tag)
		}
	})

	t.Run("live run index", func(t *testing.T) {
		for _, field := range []string{"TenantID", "ReferenceMonth", "ReferenceYear"} {
			tag := gormTag(payroll.PayrollRun{}, field)
			assert.True(t, strings.Contains(tag, "idx_run_live_period"),
				"%s not part of the live run index: %s", field, tag)
		}
	})
}
