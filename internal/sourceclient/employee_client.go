package sourceclient

import (
	"context"
	"net/url"
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/payroll"
)

type EmployeeClient struct {
	client *serviceClient
}

func NewEmployeeClient(timeout time.Duration) *EmployeeClient {
	return &EmployeeClient{
		client: newServiceClient("EMPLOYEE_SERVICE_URL", "http://employee-service:8080", timeout),
	}
}

func (c *EmployeeClient) GetEmployee(ctx context.Context, tenantID, employeeID string) (payroll.EmployeeData, error) {
	var data payroll.EmployeeData
	params := url.Values{}
	params.Set("tenant_id", tenantID)

	err := c.client.getJSON(ctx, "/api/v1/employees/"+employeeID, params, &data)
	if err != nil {
		return payroll.EmployeeData{}, err
	}
	return data, nil
}

func (c *EmployeeClient) ListActiveEmployees(ctx context.Context, tenantID string) ([]payroll.EmployeeData, error) {
	var data struct {
		Employees []payroll.EmployeeData `json:"employees"`
	}
	params := url.Values{}
	params.Set("tenant_id", tenantID)
	params.Set("status", "ACTIVE")

	if err := c.client.getJSON(ctx, "/api/v1/employees", params, &data); err != nil {
		return nil, err
	}
	return data.Employees, nil
}
