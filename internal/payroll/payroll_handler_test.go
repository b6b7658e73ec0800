package payroll_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jdeveloperweb/axonrh-sub004/internal/payroll"
	payrollerrors "github.com/jdeveloperweb/axonrh-sub004/internal/payroll/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func mustDecodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakePayrollService struct {
	processFn          func(ctx context.Context, tenantID, actorID string, req payroll.ProcessPayrollRequest) (payroll.PayrollResponse, error)
	getByIDFn          func(ctx context.Context, tenantID, id string) (payroll.PayrollResponse, error)
	getPayslipFn       func(ctx context.Context, tenantID, id string) (payroll.PayslipResponse, error)
	listByCompetencyFn func(ctx context.Context, tenantID string, month, year int, status string, limit, offset int) ([]payroll.PayrollResponse, int64, error)
	listByEmployeeFn   func(ctx context.Context, tenantID, employeeID string) ([]payroll.PayrollResponse, error)
}

func (f *fakePayrollService) Process(ctx context.Context, tenantID, actorID string, req payroll.ProcessPayrollRequest) (payroll.PayrollResponse, error) {
	return f.processFn(ctx, tenantID, actorID, req)
}

func (f *fakePayrollService) ProcessForRun(ctx context.Context, tenantID, employeeID string, month, year int, runID uuid.UUID) (*payroll.Payroll, error) {
	return nil, nil
}

func (f *fakePayrollService) GetByID(ctx context.Context, tenantID, id string) (payroll.PayrollResponse, error) {
	return f.getByIDFn(ctx, tenantID, id)
}

func (f *fakePayrollService) GetPayslip(ctx context.Context, tenantID, id string) (payroll.PayslipResponse, error) {
	return f.getPayslipFn(ctx, tenantID, id)
}

func (f *fakePayrollService) ListByCompetency(ctx context.Context, tenantID string, month, year int, status string, limit, offset int) ([]payroll.PayrollResponse, int64, error) {
	return f.listByCompetencyFn(ctx, tenantID, month, year, status, limit, offset)
}

func (f *fakePayrollService) ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]payroll.PayrollResponse, error) {
	return f.listByEmployeeFn(ctx, tenantID, employeeID)
}

type fakeRunService struct {
	processBatchFn    func(ctx context.Context, tenantID, actorID string, req payroll.CreateRunRequest) (payroll.RunResponse, error)
	getRunFn          func(ctx context.Context, tenantID, id string) (payroll.RunResponse, error)
	listRunsFn        func(ctx context.Context, tenantID string, month, year, limit, offset int) ([]payroll.RunResponse, int64, error)
	cancelRunFn       func(ctx context.Context, tenantID, actorID, id string) (payroll.RunResponse, error)
	closeCompetencyFn func(ctx context.Context, tenantID, actorID string, req payroll.CloseCompetencyRequest) (payroll.RunResponse, error)
}

func (f *fakeRunService) ProcessBatch(ctx context.Context, tenantID, actorID string, req payroll.CreateRunRequest) (payroll.RunResponse, error) {
	return f.processBatchFn(ctx, tenantID, actorID, req)
}

func (f *fakeRunService) GetRun(ctx context.Context, tenantID, id string) (payroll.RunResponse, error) {
	return f.getRunFn(ctx, tenantID, id)
}

func (f *fakeRunService) ListRuns(ctx context.Context, tenantID string, month, year, limit, offset int) ([]payroll.RunResponse, int64, error) {
	return f.listRunsFn(ctx, tenantID, month, year, limit, offset)
}

func (f *fakeRunService) CancelRun(ctx context.Context, tenantID, actorID, id string) (payroll.RunResponse, error) {
	return f.cancelRunFn(ctx, tenantID, actorID, id)
}

func (f *fakeRunService) CloseCompetency(ctx context.Context, tenantID, actorID string, req payroll.CloseCompetencyRequest) (payroll.RunResponse, error) {
	return f.closeCompetencyFn(ctx, tenantID, actorID, req)
}

func TestPayrollHandler_Process(t *testing.T) {
	tenantID := uuid.New().String()
	actorID := uuid.New().String()
	employeeID := uuid.New().String()

	svc := &fakePayrollService{
		processFn: func(ctx context.Context, tid, aid string, req payroll.ProcessPayrollRequest) (payroll.PayrollResponse, error) {
			assert.Equal(t, tenantID, tid)
			assert.Equal(t, actorID, aid)
			assert.Equal(t, employeeID, req.EmployeeID)
			assert.Equal(t, 3, req.ReferenceMonth)
			return payroll.PayrollResponse{ID: uuid.New().String(), Status: payroll.StatusCalculated, EmployeeID: req.EmployeeID}, nil
		},
	}

	h := payroll.NewHandler(svc, &fakeRunService{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := `{"employee_id":"` + employeeID + `","reference_month":3,"reference_year":2025}`
	c.Request = httptest.NewRequest(http.MethodPost, "/payrolls/process", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("tenant_id", tenantID)
	c.Set("user_id", actorID)

	h.Process(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)
}

func TestPayrollHandler_Process_Validation(t *testing.T) {
	h := payroll.NewHandler(&fakePayrollService{}, &fakeRunService{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := `{"employee_id":"not-a-uuid","reference_month":13}`
	c.Request = httptest.NewRequest(http.MethodPost, "/payrolls/process", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("tenant_id", uuid.New().String())
	c.Set("user_id", uuid.New().String())

	h.Process(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.False(t, env.Ok)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestPayrollHandler_Process_Locked(t *testing.T) {
	employeeID := uuid.New().String()
	svc := &fakePayrollService{
		processFn: func(ctx context.Context, _, _ string, _ payroll.ProcessPayrollRequest) (payroll.PayrollResponse, error) {
			return payroll.PayrollResponse{}, payrollerrors.ErrPayrollLocked
		},
	}

	h := payroll.NewHandler(svc, &fakeRunService{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := `{"employee_id":"` + employeeID + `","reference_month":3,"reference_year":2025}`
	c.Request = httptest.NewRequest(http.MethodPost, "/payrolls/process", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("tenant_id", uuid.New().String())
	c.Set("user_id", uuid.New().String())

	h.Process(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.False(t, env.Ok)
	assert.Equal(t, "INVALID_STATE", env.Error.Code)
}

func TestPayrollHandler_GetPayslip(t *testing.T) {
	tenantID := uuid.New().String()
	payrollID := uuid.New().String()

	svc := &fakePayrollService{
		getPayslipFn: func(ctx context.Context, tid, id string) (payroll.PayslipResponse, error) {
			assert.Equal(t, tenantID, tid)
			assert.Equal(t, payrollID, id)
			return payroll.PayslipResponse{PayrollID: payrollID, Competency: "03/2025", NetSalary: "2500.00"}, nil
		},
	}

	h := payroll.NewHandler(svc, &fakeRunService{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/payrolls/"+payrollID+"/payslip", nil)
	c.Params = []gin.Param{{Key: "id", Value: payrollID}}
	c.Set("tenant_id", tenantID)

	h.GetPayslip(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)

	var slip payroll.PayslipResponse
	assert.NoError(t, json.Unmarshal(env.Data, &slip))
	assert.Equal(t, "03/2025", slip.Competency)
}

func TestPayrollHandler_ListByCompetency_Pagination(t *testing.T) {
	svc := &fakePayrollService{
		listByCompetencyFn: func(ctx context.Context, _ string, month, year int, status string, limit, offset int) ([]payroll.PayrollResponse, int64, error) {
			assert.Equal(t, 3, month)
			assert.Equal(t, 2025, year)
			assert.Equal(t, "CALCULATED", status)
			assert.Equal(t, 10, limit)
			assert.Equal(t, 10, offset)
			return []payroll.PayrollResponse{{ID: uuid.New().String()}}, 21, nil
		},
	}

	h := payroll.NewHandler(svc, &fakeRunService{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/payrolls?month=3&year=2025&status=CALCULATED&page=2&page_size=10", nil)
	c.Set("tenant_id", uuid.New().String())

	h.ListByCompetency(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Ok   bool `json:"ok"`
		Meta struct {
			Total      int64 `json:"total"`
			TotalPages int   `json:"totalPages"`
			Page       int   `json:"page"`
		} `json:"meta"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Ok)
	assert.Equal(t, int64(21), envelope.Meta.Total)
	assert.Equal(t, 3, envelope.Meta.TotalPages)
	assert.Equal(t, 2, envelope.Meta.Page)
}

func TestPayrollHandler_ProcessBatch(t *testing.T) {
	tenantID := uuid.New().String()
	actorID := uuid.New().String()

	runs := &fakeRunService{
		processBatchFn: func(ctx context.Context, tid, aid string, req payroll.CreateRunRequest) (payroll.RunResponse, error) {
			assert.Equal(t, tenantID, tid)
			assert.Equal(t, actorID, aid)
			assert.Equal(t, 3, req.ReferenceMonth)
			assert.Empty(t, req.EmployeeIDs)
			return payroll.RunResponse{ID: uuid.New().String(), Status: payroll.RunStatusCompleted, TargetedCount: 12, ProcessedCount: 12}, nil
		},
	}

	h := payroll.NewHandler(&fakePayrollService{}, runs)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := `{"reference_month":3,"reference_year":2025}`
	c.Request = httptest.NewRequest(http.MethodPost, "/payroll-runs", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("tenant_id", tenantID)
	c.Set("user_id", actorID)

	h.ProcessBatch(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)

	var run payroll.RunResponse
	assert.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Equal(t, payroll.RunStatusCompleted, run.Status)
	assert.Equal(t, 12, run.ProcessedCount)
}

func TestPayrollHandler_ProcessBatch_Duplicate(t *testing.T) {
	runs := &fakeRunService{
		processBatchFn: func(ctx context.Context, _, _ string, _ payroll.CreateRunRequest) (payroll.RunResponse, error) {
			return payroll.RunResponse{}, payrollerrors.ErrDuplicateRun
		},
	}

	h := payroll.NewHandler(&fakePayrollService{}, runs)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := `{"reference_month":3,"reference_year":2025}`
	c.Request = httptest.NewRequest(http.MethodPost, "/payroll-runs", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("tenant_id", uuid.New().String())
	c.Set("user_id", uuid.New().String())

	h.ProcessBatch(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, "CONFLICT", env.Error.Code)
}

func TestPayrollHandler_CancelRun(t *testing.T) {
	tenantID := uuid.New().String()
	actorID := uuid.New().String()
	runID := uuid.New().String()

	runs := &fakeRunService{
		cancelRunFn: func(ctx context.Context, tid, aid, id string) (payroll.RunResponse, error) {
			assert.Equal(t, tenantID, tid)
			assert.Equal(t, actorID, aid)
			assert.Equal(t, runID, id)
			return payroll.RunResponse{ID: id, Status: payroll.RunStatusCancelled}, nil
		},
	}

	h := payroll.NewHandler(&fakePayrollService{}, runs)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/payroll-runs/"+runID+"/cancel", nil)
	c.Params = []gin.Param{{Key: "id", Value: runID}}
	c.Set("tenant_id", tenantID)
	c.Set("user_id", actorID)

	h.CancelRun(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)
}

func TestPayrollHandler_CloseCompetency_NotReady(t *testing.T) {
	runs := &fakeRunService{
		closeCompetencyFn: func(ctx context.Context, _, _ string, _ payroll.CloseCompetencyRequest) (payroll.RunResponse, error) {
			return payroll.RunResponse{}, payrollerrors.ErrRunNotReady
		},
	}

	h := payroll.NewHandler(&fakePayrollService{}, runs)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := `{"reference_month":3,"reference_year":2025}`
	c.Request = httptest.NewRequest(http.MethodPost, "/payroll-runs/close", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("tenant_id", uuid.New().String())
	c.Set("user_id", uuid.New().String())

	h.CloseCompetency(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := mustDecodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, "INVALID_STATE", env.Error.Code)
}
