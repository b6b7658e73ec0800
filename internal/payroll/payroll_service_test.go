package payroll_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/events"
	"github.com/jdeveloperweb/axonrh-sub004/internal/messaging/kafka"
	"github.com/jdeveloperweb/axonrh-sub004/internal/payroll"
	payrollerrors "github.com/jdeveloperweb/axonrh-sub004/internal/payroll/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakePayrollRepository struct {
	createFn             func(ctx context.Context, p *payroll.Payroll) error
	findByIDFn           func(ctx context.Context, tenantID, id string) (*payroll.Payroll, error)
	findByPeriodFn       func(ctx context.Context, tenantID, employeeID string, month, year int) (*payroll.Payroll, error)
	existsNonCancelledFn func(ctx context.Context, tenantID, employeeID string, month, year int) (bool, error)
	listByCompetencyFn   func(ctx context.Context, tenantID string, month, year int, status string, limit, offset int) ([]payroll.Payroll, int64, error)
	listByEmployeeFn     func(ctx context.Context, tenantID, employeeID string) ([]payroll.Payroll, error)
	listByRunFn          func(ctx context.Context, tenantID, runID string) ([]payroll.Payroll, error)
	updateFn             func(ctx context.Context, p *payroll.Payroll) error
	replaceItemsFn       func(ctx context.Context, p *payroll.Payroll, items []payroll.PayrollItem) error
	closeByCompetencyFn  func(ctx context.Context, tenantID string, month, year int) (int64, error)
}

func (f *fakePayrollRepository) WithTx(tx *sql.Tx) payroll.Repository { return f }

func (f *fakePayrollRepository) Create(ctx context.Context, p *payroll.Payroll) error {
	if f.createFn != nil {
		return f.createFn(ctx, p)
	}
	return nil
}

func (f *fakePayrollRepository) FindByIDAndTenant(ctx context.Context, tenantID, id string) (*payroll.Payroll, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, tenantID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayrollRepository) FindByEmployeeAndPeriod(ctx context.Context, tenantID, employeeID string, month, year int) (*payroll.Payroll, error) {
	if f.findByPeriodFn != nil {
		return f.findByPeriodFn(ctx, tenantID, employeeID, month, year)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayrollRepository) ExistsNonCancelled(ctx context.Context, tenantID, employeeID string, month, year int) (bool, error) {
	if f.existsNonCancelledFn != nil {
		return f.existsNonCancelledFn(ctx, tenantID, employeeID, month, year)
	}
	return false, nil
}

func (f *fakePayrollRepository) ListByCompetency(ctx context.Context, tenantID string, month, year int, status string, limit, offset int) ([]payroll.Payroll, int64, error) {
	if f.listByCompetencyFn != nil {
		return f.listByCompetencyFn(ctx, tenantID, month, year, status, limit, offset)
	}
	return nil, 0, nil
}

func (f *fakePayrollRepository) ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]payroll.Payroll, error) {
	if f.listByEmployeeFn != nil {
		return f.listByEmployeeFn(ctx, tenantID, employeeID)
	}
	return nil, nil
}

func (f *fakePayrollRepository) ListByRun(ctx context.Context, tenantID, runID string) ([]payroll.Payroll, error) {
	if f.listByRunFn != nil {
		return f.listByRunFn(ctx, tenantID, runID)
	}
	return nil, nil
}

func (f *fakePayrollRepository) Update(ctx context.Context, p *payroll.Payroll) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, p)
	}
	return nil
}

func (f *fakePayrollRepository) ReplaceItems(ctx context.Context, p *payroll.Payroll, items []payroll.PayrollItem) error {
	if f.replaceItemsFn != nil {
		return f.replaceItemsFn(ctx, p, items)
	}
	p.Items = items
	return nil
}

func (f *fakePayrollRepository) CloseByCompetency(ctx context.Context, tenantID string, month, year int) (int64, error) {
	if f.closeByCompetencyFn != nil {
		return f.closeByCompetencyFn(ctx, tenantID, month, year)
	}
	return 0, nil
}

type fakeOutboxRepository struct {
	created []kafka.OutboxEvent
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error { return nil }

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

type payrollServiceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	redisMock redismock.ClientMock
	repo      *fakePayrollRepository
	outbox    *fakeOutboxRepository
	service   payroll.Service
}

func setupPayrollServiceTest(t *testing.T) payrollServiceDeps {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rdb, redisMock := redismock.NewClientMock()
	repo := &fakePayrollRepository{}
	outbox := &fakeOutboxRepository{}
	aggregator := payroll.NewAggregator(healthySources(), 0)
	calc := payroll.NewCalculator(testTablesResolver(t), payroll.DefaultCalculationParams())

	service := payroll.NewServiceWithOutbox(db, repo, aggregator, calc, outbox, rdb)

	return payrollServiceDeps{db: db, sqlMock: mock, redisMock: redisMock, repo: repo, outbox: outbox, service: service}
}

func TestServiceProcess(t *testing.T) {
	tenantID := uuid.New().String()
	actorID := uuid.New().String()
	employeeID := uuid.New().String()

	req := payroll.ProcessPayrollRequest{
		EmployeeID:     employeeID,
		ReferenceMonth: 3,
		ReferenceYear:  2025,
	}

	t.Run("creates a new payroll with an outbox event", func(t *testing.T) {
		deps := setupPayrollServiceTest(t)
		expectTx(t, deps.sqlMock, true)
		deps.redisMock.Regexp().ExpectDel(payroll.PayrollCacheKeyPrefix + ".*").SetVal(1)

		var created *payroll.Payroll
		deps.repo.createFn = func(ctx context.Context, p *payroll.Payroll) error {
			created = p
			return nil
		}

		resp, err := deps.service.Process(context.Background(), tenantID, actorID, req)
		assert.NoError(t, err)
		assert.NotNil(t, created)
		assert.Equal(t, payroll.StatusCalculated, resp.Status)
		assert.Equal(t, 1, resp.CalculationVersion)
		assert.Nil(t, created.PayrollRunID)

		assert.Len(t, deps.outbox.created, 1)
		outboxEvent := deps.outbox.created[0]
		assert.Equal(t, events.PayrollCalculatedTopic, outboxEvent.Topic)
		assert.Equal(t, tenantID, outboxEvent.TenantID)
		assert.Equal(t, created.ID.String(), outboxEvent.AggregateID)

		var event events.PayrollCalculatedEvent
		assert.NoError(t, json.Unmarshal(outboxEvent.Payload, &event))
		assert.Equal(t, "payroll_calculated", event.EventType)
		assert.Equal(t, resp.NetSalary, event.NetSalary)

		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redisMock.ExpectationsWereMet())
	})

	t.Run("recalculates the existing payroll in place", func(t *testing.T) {
		deps := setupPayrollServiceTest(t)
		expectTx(t, deps.sqlMock, true)

		existingID := uuid.New()
		deps.redisMock.ExpectDel(payroll.GetPayrollCacheKey(tenantID, existingID.String())).SetVal(1)
		deps.repo.findByPeriodFn = func(ctx context.Context, _, _ string, _, _ int) (*payroll.Payroll, error) {
			return &payroll.Payroll{
				ID:                 existingID,
				TenantID:           uuid.MustParse(tenantID),
				EmployeeID:         uuid.MustParse(employeeID),
				ReferenceMonth:     3,
				ReferenceYear:      2025,
				Status:             payroll.StatusCalculated,
				CalculationVersion: 2,
			}, nil
		}

		var replaced *payroll.Payroll
		deps.repo.replaceItemsFn = func(ctx context.Context, p *payroll.Payroll, items []payroll.PayrollItem) error {
			p.Items = items
			replaced = p
			return nil
		}

		createCalled := false
		deps.repo.createFn = func(ctx context.Context, p *payroll.Payroll) error {
			createCalled = true
			return nil
		}

		resp, err := deps.service.Process(context.Background(), tenantID, actorID, req)
		assert.NoError(t, err)
		assert.False(t, createCalled)
		assert.NotNil(t, replaced)
		assert.Equal(t, existingID.String(), resp.ID)
		assert.Equal(t, 3, resp.CalculationVersion)
		assert.Equal(t, payroll.StatusCalculated, resp.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redisMock.ExpectationsWereMet())
	})

	t.Run("locked payroll rejects recalculation", func(t *testing.T) {
		deps := setupPayrollServiceTest(t)
		expectTx(t, deps.sqlMock, false)

		deps.repo.findByPeriodFn = func(ctx context.Context, _, _ string, _, _ int) (*payroll.Payroll, error) {
			return &payroll.Payroll{ID: uuid.New(), Status: payroll.StatusPaid}, nil
		}

		_, err := deps.service.Process(context.Background(), tenantID, actorID, req)
		assert.ErrorIs(t, err, payrollerrors.ErrPayrollLocked)
		assert.Empty(t, deps.outbox.created)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("invalid actor id", func(t *testing.T) {
		deps := setupPayrollServiceTest(t)

		_, err := deps.service.Process(context.Background(), tenantID, "not-a-uuid", req)
		assert.ErrorIs(t, err, payrollerrors.ErrInvalidActorID)
	})

	t.Run("invalid employee id", func(t *testing.T) {
		deps := setupPayrollServiceTest(t)

		badReq := req
		badReq.EmployeeID = "nope"
		_, err := deps.service.Process(context.Background(), tenantID, actorID, badReq)
		assert.ErrorIs(t, err, payrollerrors.ErrInvalidEmployeeID)
	})

	t.Run("invalid competency", func(t *testing.T) {
		deps := setupPayrollServiceTest(t)

		badReq := req
		badReq.ReferenceMonth = 13
		_, err := deps.service.Process(context.Background(), tenantID, actorID, badReq)
		assert.ErrorIs(t, err, payrollerrors.ErrInvalidCompetency)
	})
}

func TestServiceProcessForRun(t *testing.T) {
	tenantID := uuid.New().String()
	employeeID := uuid.New().String()
	runID := uuid.New()

	deps := setupPayrollServiceTest(t)
	expectTx(t, deps.sqlMock, true)

	p, err := deps.service.ProcessForRun(context.Background(), tenantID, employeeID, 3, 2025, runID)
	assert.NoError(t, err)
	assert.NotNil(t, p.PayrollRunID)
	assert.Equal(t, runID, *p.PayrollRunID)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestServiceGetByID(t *testing.T) {
	tenantID := uuid.New().String()

	t.Run("cache miss loads from the repository and fills the cache", func(t *testing.T) {
		deps := setupPayrollServiceTest(t)
		id := uuid.New()
		cacheKey := payroll.GetPayrollCacheKey(tenantID, id.String())

		deps.redisMock.ExpectGet(cacheKey).RedisNil()
		deps.redisMock.Regexp().ExpectSet(cacheKey, `.*`, 10*time.Minute).SetVal("OK")

		deps.repo.findByIDFn = func(ctx context.Context, gotTenant, gotID string) (*payroll.Payroll, error) {
			assert.Equal(t, tenantID, gotTenant)
			assert.Equal(t, id.String(), gotID)
			return &payroll.Payroll{
				ID:         id,
				TenantID:   uuid.MustParse(tenantID),
				EmployeeID: uuid.New(),
				Status:     payroll.StatusCalculated,
				Items: []payroll.PayrollItem{
					{ID: uuid.New(), Type: payroll.ItemTypeEarning, Code: payroll.CodeBaseSalary, Amount: dec("3000")},
				},
			}, nil
		}

		resp, err := deps.service.GetByID(context.Background(), tenantID, id.String())
		assert.NoError(t, err)
		assert.Equal(t, id.String(), resp.ID)
		assert.Len(t, resp.Items, 1)
		assert.Equal(t, "3000.00", resp.Items[0].Amount)
		assert.NoError(t, deps.redisMock.ExpectationsWereMet())
	})

	t.Run("cache hit skips the repository", func(t *testing.T) {
		deps := setupPayrollServiceTest(t)
		id := uuid.New()
		cacheKey := payroll.GetPayrollCacheKey(tenantID, id.String())

		cached, err := json.Marshal(payroll.PayrollResponse{ID: id.String(), Status: payroll.StatusApproved})
		assert.NoError(t, err)
		deps.redisMock.ExpectGet(cacheKey).SetVal(string(cached))

		repoCalled := false
		deps.repo.findByIDFn = func(ctx context.Context, _, _ string) (*payroll.Payroll, error) {
			repoCalled = true
			return nil, gorm.ErrRecordNotFound
		}

		resp, err := deps.service.GetByID(context.Background(), tenantID, id.String())
		assert.NoError(t, err)
		assert.Equal(t, payroll.StatusApproved, resp.Status)
		assert.False(t, repoCalled)
		assert.NoError(t, deps.redisMock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		deps := setupPayrollServiceTest(t)
		id := uuid.New()
		deps.redisMock.ExpectGet(payroll.GetPayrollCacheKey(tenantID, id.String())).RedisNil()

		_, err := deps.service.GetByID(context.Background(), tenantID, id.String())
		assert.ErrorIs(t, err, payrollerrors.ErrPayrollNotFound)
	})
}

func TestServiceGetPayslip(t *testing.T) {
	tenantID := uuid.New().String()
	deps := setupPayrollServiceTest(t)
	id := uuid.New()

	deps.repo.findByIDFn = func(ctx context.Context, _, _ string) (*payroll.Payroll, error) {
		return &payroll.Payroll{
			ID:             id,
			TenantID:       uuid.MustParse(tenantID),
			EmployeeID:     uuid.New(),
			EmployeeName:   "Maria Souza",
			ReferenceMonth: 3,
			ReferenceYear:  2025,
			Status:         payroll.StatusCalculated,
			Items: []payroll.PayrollItem{
				{Type: payroll.ItemTypeEarning, Code: payroll.CodeBaseSalary, Amount: dec("3000")},
				{Type: payroll.ItemTypeDeduction, Code: payroll.CodeINSS, Amount: dec("225")},
			},
		}, nil
	}

	slip, err := deps.service.GetPayslip(context.Background(), tenantID, id.String())
	assert.NoError(t, err)
	assert.Equal(t, "03/2025", slip.Competency)
	assert.Len(t, slip.Earnings, 1)
	assert.Len(t, slip.Deductions, 1)
	assert.Equal(t, "225.00", slip.Deductions[0].Amount)
}

func TestServiceListByCompetency(t *testing.T) {
	tenantID := uuid.New().String()

	t.Run("clamps pagination and forwards filters", func(t *testing.T) {
		deps := setupPayrollServiceTest(t)

		deps.repo.listByCompetencyFn = func(ctx context.Context, _ string, month, year int, status string, limit, offset int) ([]payroll.Payroll, int64, error) {
			assert.Equal(t, 3, month)
			assert.Equal(t, 2025, year)
			assert.Equal(t, payroll.StatusCalculated, status)
			assert.Equal(t, 50, limit)
			assert.Equal(t, 0, offset)
			return []payroll.Payroll{{ID: uuid.New(), TenantID: uuid.MustParse(tenantID), EmployeeID: uuid.New()}}, 1, nil
		}

		resp, total, err := deps.service.ListByCompetency(context.Background(), tenantID, 3, 2025, payroll.StatusCalculated, -5, -1)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, resp, 1)
	})

	t.Run("invalid competency", func(t *testing.T) {
		deps := setupPayrollServiceTest(t)

		_, _, err := deps.service.ListByCompetency(context.Background(), tenantID, 0, 2025, "", 10, 0)
		assert.ErrorIs(t, err, payrollerrors.ErrInvalidCompetency)
	})
}

func TestServiceListByEmployee(t *testing.T) {
	tenantID := uuid.New().String()
	employeeID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		deps := setupPayrollServiceTest(t)

		deps.repo.listByEmployeeFn = func(ctx context.Context, _, gotEmployee string) ([]payroll.Payroll, error) {
			assert.Equal(t, employeeID, gotEmployee)
			return []payroll.Payroll{
				{ID: uuid.New(), TenantID: uuid.MustParse(tenantID), EmployeeID: uuid.MustParse(employeeID)},
				{ID: uuid.New(), TenantID: uuid.MustParse(tenantID), EmployeeID: uuid.MustParse(employeeID)},
			}, nil
		}

		resp, err := deps.service.ListByEmployee(context.Background(), tenantID, employeeID)
		assert.NoError(t, err)
		assert.Len(t, resp, 2)
	})

	t.Run("invalid employee id", func(t *testing.T) {
		deps := setupPayrollServiceTest(t)

		_, err := deps.service.ListByEmployee(context.Background(), tenantID, "nope")
		assert.ErrorIs(t, err, payrollerrors.ErrInvalidEmployeeID)
	})
}
