package payroll

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/events"
	"github.com/jdeveloperweb/axonrh-sub004/internal/messaging/kafka"
	payrollerrors "github.com/jdeveloperweb/axonrh-sub004/internal/payroll/errors"
	"github.com/jdeveloperweb/axonrh-sub004/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const PayrollCacheKeyPrefix = "payrolls:detail:"

func GetPayrollCacheKey(tenantID, payrollID string) string {
	return PayrollCacheKeyPrefix + tenantID + ":" + payrollID
}

type Service interface {
	Process(ctx context.Context, tenantID, actorID string, req ProcessPayrollRequest) (PayrollResponse, error)
	ProcessForRun(ctx context.Context, tenantID string, employeeID string, month, year int, runID uuid.UUID) (*Payroll, error)
	GetByID(ctx context.Context, tenantID, id string) (PayrollResponse, error)
	GetPayslip(ctx context.Context, tenantID, id string) (PayslipResponse, error)
	ListByCompetency(ctx context.Context, tenantID string, month, year int, status string, limit, offset int) ([]PayrollResponse, int64, error)
	ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]PayrollResponse, error)
}

type service struct {
	db         *sql.DB
	repo       Repository
	aggregator *Aggregator
	calc       *Calculator
	outbox     kafka.OutboxRepository
	rdb        *redis.Client
	sf         *singleflight.Group
	logger     *zap.Logger
}

func NewService(db *sql.DB, repo Repository, aggregator *Aggregator, calc *Calculator, rdb *redis.Client, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, aggregator, calc, nil, rdb, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	aggregator *Aggregator,
	calc *Calculator,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("payroll.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payroll.service")
	}
	return &service{
		db:         db,
		repo:       repo,
		aggregator: aggregator,
		calc:       calc,
		outbox:     outboxRepo,
		rdb:        rdb,
		sf:         &singleflight.Group{},
		logger:     l,
	}
}

func (s *service) Process(
	ctx context.Context,
	tenantID, actorID string,
	req ProcessPayrollRequest,
) (PayrollResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("process payroll requested",
		zap.String("request_id", rid),
		zap.String("tenant_id", tenantID),
		zap.String("employee_id", req.EmployeeID),
		zap.Int("month", req.ReferenceMonth),
		zap.Int("year", req.ReferenceYear),
	)

	if _, err := uuid.Parse(tenantID); err != nil {
		return PayrollResponse{}, payrollerrors.ErrInvalidTenantID
	}
	if _, err := uuid.Parse(actorID); err != nil {
		return PayrollResponse{}, payrollerrors.ErrInvalidActorID
	}

	payroll, err := s.process(ctx, tenantID, req.EmployeeID, req.ReferenceMonth, req.ReferenceYear, nil)
	if err != nil {
		return PayrollResponse{}, err
	}

	s.logger.Info("process payroll success",
		zap.String("request_id", rid),
		zap.String("payroll_id", payroll.ID.String()),
		zap.Int("calculation_version", payroll.CalculationVersion),
	)

	return mapToResponse(*payroll), nil
}

// ProcessForRun is the batch entry point: same pipeline as Process but the
// resulting payroll is attached to the run and validation of the actor is
// the orchestrator's problem.
func (s *service) ProcessForRun(
	ctx context.Context,
	tenantID string,
	employeeID string,
	month, year int,
	runID uuid.UUID,
) (*Payroll, error) {
	return s.process(ctx, tenantID, employeeID, month, year, &runID)
}

// process aggregates inputs, calculates and persists one payroll inside a
// single transaction. When a live payroll already exists for the period it
// is recalculated in place: items replaced wholesale, version incremented.
// Locked payrolls (PAID/CANCELLED/CLOSED) reject recalculation.
func (s *service) process(
	ctx context.Context,
	tenantID string,
	employeeID string,
	month, year int,
	runID *uuid.UUID,
) (*Payroll, error) {
	rid := contextutil.GetRequestID(ctx)

	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, payrollerrors.ErrInvalidEmployeeID
	}
	if month < 1 || month > 12 || year < 2000 {
		return nil, payrollerrors.ErrInvalidCompetency
	}

	// Source aggregation and calculation stay outside the transaction:
	// they touch remote services and the bracket tables, not our rows.
	bundle := s.aggregator.Collect(ctx, tenantID, employeeID, month, year)

	calculated, err := s.calc.Calculate(ctx, tenantID, bundle, month, year)
	if err != nil {
		return nil, err
	}
	calculated.PayrollRunID = runID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("process payroll begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	persisted := calculated
	existing, err := qtx.FindByEmployeeAndPeriod(ctx, tenantID, employeeID, month, year)
	switch mapped := mapRepositoryError(err); mapped {
	case nil:
		if !IsRecalculable(existing.Status) {
			return nil, payrollerrors.ErrPayrollLocked
		}
		existing.EmployeeName = calculated.EmployeeName
		existing.EmployeeTaxID = calculated.EmployeeTaxID
		existing.RegistrationNumber = calculated.RegistrationNumber
		existing.DepartmentName = calculated.DepartmentName
		existing.PositionName = calculated.PositionName
		existing.BaseSalary = calculated.BaseSalary
		existing.FgtsAmount = calculated.FgtsAmount
		existing.Notes = calculated.Notes
		existing.Status = StatusCalculated
		existing.CalculationVersion++
		if runID != nil {
			existing.PayrollRunID = runID
		}

		if err := qtx.ReplaceItems(ctx, existing, calculated.Items); err != nil {
			s.logger.Error("process payroll replace items failed", zap.Error(err))
			return nil, mapRepositoryError(err)
		}
		existing.RecalculateTotals()
		if err := qtx.Update(ctx, existing); err != nil {
			s.logger.Error("process payroll update failed", zap.Error(err))
			return nil, mapRepositoryError(err)
		}
		persisted = existing
	case payrollerrors.ErrPayrollNotFound:
		if err := qtx.Create(ctx, calculated); err != nil {
			s.logger.Error("process payroll persist failed", zap.Error(err))
			return nil, mapRepositoryError(err)
		}
	default:
		s.logger.Error("process payroll fetch existing failed", zap.Error(err))
		return nil, mapped
	}

	if s.outbox != nil {
		event := events.PayrollCalculatedEvent{
			EventType:          "payroll_calculated",
			RequestID:          rid,
			PayrollID:          persisted.ID.String(),
			TenantID:           tenantID,
			EmployeeID:         employeeID,
			ReferenceMonth:     month,
			ReferenceYear:      year,
			NetSalary:          persisted.NetSalary.StringFixed(2),
			CalculationVersion: persisted.CalculationVersion,
			OccurredAt:         time.Now().UTC(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Error("marshal payroll event failed", zap.String("request_id", rid), zap.Error(err))
			return nil, err
		}

		outboxRepo := s.outbox.WithTx(tx)
		if err := outboxRepo.Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			TenantID:      tenantID,
			AggregateType: "payroll",
			AggregateID:   persisted.ID.String(),
			EventType:     event.EventType,
			Topic:         events.PayrollCalculatedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("payroll outbox persist failed",
				zap.String("payroll_id", persisted.ID.String()),
				zap.Error(err),
			)
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("process payroll commit failed", zap.String("request_id", rid), zap.Error(err))
		return nil, err
	}

	if s.rdb != nil {
		cacheKey := GetPayrollCacheKey(tenantID, persisted.ID.String())
		if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
			s.logger.Error("failed to invalidate payroll cache",
				zap.Error(err),
				zap.String("key", cacheKey),
			)
		}
	}

	return persisted, nil
}

func (s *service) GetByID(
	ctx context.Context,
	tenantID, id string,
) (PayrollResponse, error) {
	cacheKey := GetPayrollCacheKey(tenantID, id)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp PayrollResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		payroll, err := s.repo.FindByIDAndTenant(ctx, tenantID, id)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := mapToResponse(*payroll)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, 10*time.Minute)
			}
		}

		return resp, nil
	})

	if err != nil {
		return PayrollResponse{}, err
	}

	return v.(PayrollResponse), nil
}

func (s *service) GetPayslip(
	ctx context.Context,
	tenantID, id string,
) (PayslipResponse, error) {
	payroll, err := s.repo.FindByIDAndTenant(ctx, tenantID, id)
	if err != nil {
		return PayslipResponse{}, mapRepositoryError(err)
	}

	return mapToPayslip(*payroll), nil
}

func (s *service) ListByCompetency(
	ctx context.Context,
	tenantID string,
	month, year int,
	status string,
	limit, offset int,
) ([]PayrollResponse, int64, error) {
	if month < 1 || month > 12 || year < 2000 {
		return nil, 0, payrollerrors.ErrInvalidCompetency
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	payrolls, total, err := s.repo.ListByCompetency(ctx, tenantID, month, year, status, limit, offset)
	if err != nil {
		s.logger.Error("list payrolls by competency failed", zap.Error(err))
		return nil, 0, mapRepositoryError(err)
	}

	return mapToListResponse(payrolls), total, nil
}

func (s *service) ListByEmployee(
	ctx context.Context,
	tenantID, employeeID string,
) ([]PayrollResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, payrollerrors.ErrInvalidEmployeeID
	}

	payrolls, err := s.repo.ListByEmployee(ctx, tenantID, employeeID)
	if err != nil {
		s.logger.Error("list payrolls by employee failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	return mapToListResponse(payrolls), nil
}

func mapToResponse(payroll Payroll) PayrollResponse {
	resp := PayrollResponse{
		ID:                 payroll.ID.String(),
		TenantID:           payroll.TenantID.String(),
		EmployeeID:         payroll.EmployeeID.String(),
		EmployeeName:       payroll.EmployeeName,
		EmployeeTaxID:      payroll.EmployeeTaxID,
		RegistrationNumber: payroll.RegistrationNumber,
		DepartmentName:     payroll.DepartmentName,
		PositionName:       payroll.PositionName,
		ReferenceMonth:     payroll.ReferenceMonth,
		ReferenceYear:      payroll.ReferenceYear,
		Status:             payroll.Status,
		BaseSalary:         payroll.BaseSalary.StringFixed(2),
		TotalEarnings:      payroll.TotalEarnings.StringFixed(2),
		TotalDeductions:    payroll.TotalDeductions.StringFixed(2),
		NetSalary:          payroll.NetSalary.StringFixed(2),
		FgtsAmount:         payroll.FgtsAmount.StringFixed(2),
		CalculationVersion: payroll.CalculationVersion,
		Notes:              payroll.Notes,
	}

	if payroll.PayrollRunID != nil {
		v := payroll.PayrollRunID.String()
		resp.PayrollRunID = &v
	}

	for _, item := range payroll.Items {
		resp.Items = append(resp.Items, mapItemToResponse(item))
	}

	return resp
}

func mapItemToResponse(item PayrollItem) PayrollItemResponse {
	return PayrollItemResponse{
		ID:             item.ID.String(),
		Type:           item.Type,
		Code:           item.Code,
		Description:    item.Description,
		ReferenceValue: nullDecimalToString(item.ReferenceValue),
		Quantity:       nullDecimalToString(item.Quantity),
		Percentage:     nullDecimalToString(item.Percentage),
		Amount:         item.Amount.StringFixed(2),
		Notes:          item.Notes,
	}
}

func mapToPayslip(payroll Payroll) PayslipResponse {
	slip := PayslipResponse{
		PayrollID:          payroll.ID.String(),
		EmployeeName:       payroll.EmployeeName,
		EmployeeTaxID:      payroll.EmployeeTaxID,
		RegistrationNumber: payroll.RegistrationNumber,
		DepartmentName:     payroll.DepartmentName,
		PositionName:       payroll.PositionName,
		Competency:         fmt.Sprintf("%02d/%04d", payroll.ReferenceMonth, payroll.ReferenceYear),
		Status:             payroll.Status,
		TotalEarnings:      payroll.TotalEarnings.StringFixed(2),
		TotalDeductions:    payroll.TotalDeductions.StringFixed(2),
		NetSalary:          payroll.NetSalary.StringFixed(2),
		FgtsAmount:         payroll.FgtsAmount.StringFixed(2),
		CalculationVersion: payroll.CalculationVersion,
		Notes:              payroll.Notes,
		GeneratedAt:        time.Now().UTC().Format(time.RFC3339),
	}

	for _, item := range payroll.Items {
		mapped := mapItemToResponse(item)
		switch item.Type {
		case ItemTypeEarning:
			slip.Earnings = append(slip.Earnings, mapped)
		case ItemTypeDeduction:
			slip.Deductions = append(slip.Deductions, mapped)
		}
	}

	return slip
}

func mapToListResponse(payrolls []Payroll) []PayrollResponse {
	res := make([]PayrollResponse, len(payrolls))
	for i, payroll := range payrolls {
		res[i] = mapToResponse(payroll)
	}
	return res
}

func nullDecimalToString(v decimal.NullDecimal) *string {
	if !v.Valid {
		return nil
	}
	s := v.Decimal.String()
	return &s
}
