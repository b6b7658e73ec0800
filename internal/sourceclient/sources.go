package sourceclient

import (
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/payroll"
)

// NewSources wires the five HTTP clients into the bundle the payroll
// aggregator consumes. Base URLs come from the *_SERVICE_URL env vars.
func NewSources(timeout time.Duration) payroll.Sources {
	return payroll.Sources{
		Employee:    NewEmployeeClient(timeout),
		Attendance:  NewAttendanceClient(timeout),
		Vacation:    NewVacationClient(timeout),
		Benefits:    NewBenefitsClient(timeout),
		Performance: NewPerformanceClient(timeout),
	}
}
