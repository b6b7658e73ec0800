package sourceclient

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/payroll"
)

type VacationClient struct {
	client *serviceClient
}

func NewVacationClient(timeout time.Duration) *VacationClient {
	return &VacationClient{
		client: newServiceClient("VACATION_SERVICE_URL", "http://vacation-service:8080", timeout),
	}
}

// GetVacationsForPeriod lists vacation events overlapping the competency.
// No vacation this month is an empty slice, and a 404 is folded into it.
func (c *VacationClient) GetVacationsForPeriod(ctx context.Context, tenantID, employeeID string, month, year int) ([]payroll.VacationEvent, error) {
	var data struct {
		Vacations []payroll.VacationEvent `json:"vacations"`
	}
	params := url.Values{}
	params.Set("tenant_id", tenantID)
	params.Set("month", strconv.Itoa(month))
	params.Set("year", strconv.Itoa(year))

	err := c.client.getJSON(ctx, "/api/v1/vacations/employee/"+employeeID, params, &data)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return data.Vacations, nil
}
