package sourceclient

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/payroll"
)

type PerformanceClient struct {
	client *serviceClient
}

func NewPerformanceClient(timeout time.Duration) *PerformanceClient {
	return &PerformanceClient{
		client: newServiceClient("PERFORMANCE_SERVICE_URL", "http://performance-service:8080", timeout),
	}
}

// GetBonusForPeriod fetches the approved bonus and commission for the
// competency. Most employees have none: a 404 is a zero bonus.
func (c *PerformanceClient) GetBonusForPeriod(ctx context.Context, tenantID, employeeID string, month, year int) (payroll.PerformanceBonus, error) {
	var data payroll.PerformanceBonus
	params := url.Values{}
	params.Set("tenant_id", tenantID)
	params.Set("month", strconv.Itoa(month))
	params.Set("year", strconv.Itoa(year))

	err := c.client.getJSON(ctx, "/api/v1/performance/bonus/"+employeeID, params, &data)
	if err != nil {
		if isNotFound(err) {
			return payroll.PerformanceBonus{}, nil
		}
		return payroll.PerformanceBonus{}, err
	}
	return data, nil
}
