package sourceclient

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/payroll"

	"github.com/shopspring/decimal"
)

type BenefitsClient struct {
	client *serviceClient
}

func NewBenefitsClient(timeout time.Duration) *BenefitsClient {
	return &BenefitsClient{
		client: newServiceClient("BENEFITS_SERVICE_URL", "http://benefits-service:8080", timeout),
	}
}

// CalculateForPayroll asks the benefits service for the employee's benefit
// lines already valued against the base salary. An employee with no
// enrolled benefits comes back as an empty statement.
func (c *BenefitsClient) CalculateForPayroll(ctx context.Context, tenantID, employeeID string, month, year int, baseSalary decimal.Decimal) (payroll.BenefitStatement, error) {
	var data payroll.BenefitStatement
	params := url.Values{}
	params.Set("tenant_id", tenantID)
	params.Set("month", strconv.Itoa(month))
	params.Set("year", strconv.Itoa(year))
	params.Set("base_salary", baseSalary.String())

	err := c.client.getJSON(ctx, "/api/v1/benefits/employee/"+employeeID+"/payroll", params, &data)
	if err != nil {
		if isNotFound(err) {
			return payroll.BenefitStatement{}, nil
		}
		return payroll.BenefitStatement{}, err
	}
	return data, nil
}
