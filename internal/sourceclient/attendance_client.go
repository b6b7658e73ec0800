package sourceclient

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/payroll"
)

type AttendanceClient struct {
	client *serviceClient
}

func NewAttendanceClient(timeout time.Duration) *AttendanceClient {
	return &AttendanceClient{
		client: newServiceClient("ATTENDANCE_SERVICE_URL", "http://attendance-service:8080", timeout),
	}
}

// GetMonthSummary fetches the consolidated attendance numbers for one
// employee and competency. A 404 means no attendance records exist for the
// period, which is a zero summary, not a failure.
func (c *AttendanceClient) GetMonthSummary(ctx context.Context, tenantID, employeeID string, month, year int) (payroll.AttendanceSummary, error) {
	var data payroll.AttendanceSummary
	params := url.Values{}
	params.Set("tenant_id", tenantID)
	params.Set("month", strconv.Itoa(month))
	params.Set("year", strconv.Itoa(year))

	err := c.client.getJSON(ctx, "/api/v1/attendance/"+employeeID+"/summary", params, &data)
	if err != nil {
		if isNotFound(err) {
			return payroll.AttendanceSummary{}, nil
		}
		return payroll.AttendanceSummary{}, err
	}
	return data, nil
}
