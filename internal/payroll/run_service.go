package payroll

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/events"
	"github.com/jdeveloperweb/axonrh-sub004/internal/messaging/kafka"
	payrollerrors "github.com/jdeveloperweb/axonrh-sub004/internal/payroll/errors"
	"github.com/jdeveloperweb/axonrh-sub004/internal/shared/contextutil"
	"github.com/jdeveloperweb/axonrh-sub004/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultBatchWorkers = 4

type RunService interface {
	ProcessBatch(ctx context.Context, tenantID, actorID string, req CreateRunRequest) (RunResponse, error)
	GetRun(ctx context.Context, tenantID, id string) (RunResponse, error)
	ListRuns(ctx context.Context, tenantID string, month, year, limit, offset int) ([]RunResponse, int64, error)
	CancelRun(ctx context.Context, tenantID, actorID, id string) (RunResponse, error)
	CloseCompetency(ctx context.Context, tenantID, actorID string, req CloseCompetencyRequest) (RunResponse, error)
}

type runService struct {
	db        *sql.DB
	runRepo   RunRepository
	repo      Repository
	payrolls  Service
	employees EmployeeSource
	counter   counter.Repository
	outbox    kafka.OutboxRepository
	rdb       *redis.Client
	workers   int
	logger    *zap.Logger

	// live runs and their cancel functions; CancelRun reaches a run in
	// flight through here
	mu     sync.Mutex
	active map[string]context.CancelFunc
}

func NewRunService(
	db *sql.DB,
	runRepo RunRepository,
	repo Repository,
	payrolls Service,
	employees EmployeeSource,
	counterRepo counter.Repository,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	workers int,
	logger ...*zap.Logger,
) RunService {
	l := zap.L().Named("payroll.run.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payroll.run.service")
	}
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	return &runService{
		db:        db,
		runRepo:   runRepo,
		repo:      repo,
		payrolls:  payrolls,
		employees: employees,
		counter:   counterRepo,
		outbox:    outboxRepo,
		rdb:       rdb,
		workers:   workers,
		logger:    l,
		active:    make(map[string]context.CancelFunc),
	}
}

func (s *runService) ProcessBatch(
	ctx context.Context,
	tenantID, actorID string,
	req CreateRunRequest,
) (RunResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("process batch requested",
		zap.String("request_id", rid),
		zap.String("tenant_id", tenantID),
		zap.Int("month", req.ReferenceMonth),
		zap.Int("year", req.ReferenceYear),
		zap.Int("requested_employees", len(req.EmployeeIDs)),
	)

	tenantUUID, err := uuid.Parse(tenantID)
	if err != nil {
		return RunResponse{}, payrollerrors.ErrInvalidTenantID
	}
	if _, err := uuid.Parse(actorID); err != nil {
		return RunResponse{}, payrollerrors.ErrInvalidActorID
	}

	month, year := req.ReferenceMonth, req.ReferenceYear

	activeRun, err := s.runRepo.HasActiveRun(ctx, tenantID, month, year)
	if err != nil {
		s.logger.Error("process batch active run check failed", zap.Error(err))
		return RunResponse{}, mapRunRepositoryError(err)
	}
	if activeRun {
		return RunResponse{}, payrollerrors.ErrDuplicateRun
	}

	closedRun, err := s.runRepo.HasClosedRun(ctx, tenantID, month, year)
	if err != nil {
		s.logger.Error("process batch closed run check failed", zap.Error(err))
		return RunResponse{}, mapRunRepositoryError(err)
	}
	if closedRun {
		return RunResponse{}, payrollerrors.ErrPayrollLocked
	}

	targets, err := s.resolveTargets(ctx, tenantID, req.EmployeeIDs)
	if err != nil {
		return RunResponse{}, err
	}
	if len(targets) == 0 {
		return RunResponse{}, payrollerrors.ErrNoEmployeesTargeted
	}

	nextVal, err := s.counter.GetNextValue(ctx, tenantID, counter.TypePayrollRun)
	if err != nil {
		s.logger.Error("process batch run number failed", zap.Error(err))
		return RunResponse{}, err
	}

	now := time.Now().UTC()
	run := &PayrollRun{
		ID:             uuid.New(),
		TenantID:       tenantUUID,
		RunNumber:      fmt.Sprintf("RUN-%04d%02d-%04d", year, month, nextVal),
		ReferenceMonth: month,
		ReferenceYear:  year,
		Status:         RunStatusOpen,
		TotalEmployees: len(targets),
	}

	if err := s.runRepo.Create(ctx, run); err != nil {
		s.logger.Error("process batch persist run failed", zap.Error(err))
		return RunResponse{}, mapRunRepositoryError(err)
	}

	run.Status = RunStatusProcessing
	run.StartedAt = &now
	if err := s.runRepo.Update(ctx, run); err != nil {
		s.logger.Error("process batch mark processing failed", zap.Error(err))
		return RunResponse{}, mapRunRepositoryError(err)
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	s.register(run.ID.String(), cancel)

	cancelled := s.dispatch(ctx, cancelCtx, run, targets)

	s.unregister(run.ID.String())
	cancel()

	finished := time.Now().UTC()
	run.FinishedAt = &finished
	switch {
	case cancelled:
		run.Status = RunStatusCancelled
	case run.FailedEmployees > 0:
		run.Status = RunStatusPartiallyFailed
	default:
		run.Status = RunStatusCompleted
	}

	// Aggregates come from the children, never from incremental drift.
	children, err := s.repo.ListByRun(ctx, tenantID, run.ID.String())
	if err != nil {
		s.logger.Error("process batch list children failed", zap.Error(err))
		return RunResponse{}, mapRunRepositoryError(err)
	}
	run.RecalculateSummary(children)

	if err := s.finishRun(ctx, tenantID, rid, run); err != nil {
		return RunResponse{}, err
	}

	s.logger.Info("process batch finished",
		zap.String("request_id", rid),
		zap.String("run_id", run.ID.String()),
		zap.String("run_number", run.RunNumber),
		zap.String("status", run.Status),
		zap.Int("targeted", run.TotalEmployees),
		zap.Int("processed", run.ProcessedEmployees),
		zap.Int("failed", run.FailedEmployees),
	)

	return mapRunToResponse(*run), nil
}

// dispatch fans the targets out over the worker pool. The cancel context
// only gates dispatching: a worker that already picked up an employee runs
// to completion on the parent context, so a cancelled run never leaves a
// half-written payroll behind.
func (s *runService) dispatch(ctx, cancelCtx context.Context, run *PayrollRun, targets []string) (cancelled bool) {
	jobs := make(chan string)

	var (
		mu       sync.Mutex
		failed   int
		failures []RunFailure
	)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for employeeID := range jobs {
				_, err := s.payrolls.ProcessForRun(ctx, run.TenantID.String(), employeeID, run.ReferenceMonth, run.ReferenceYear, run.ID)
				mu.Lock()
				if err != nil {
					failed++
					failures = append(failures, RunFailure{
						ID:           uuid.New(),
						PayrollRunID: run.ID,
						TenantID:     run.TenantID,
						EmployeeID:   uuid.MustParse(employeeID),
						Reason:       err.Error(),
					})
					s.logger.Warn("batch employee failed",
						zap.String("run_id", run.ID.String()),
						zap.String("employee_id", employeeID),
						zap.Error(err),
					)
				}
				mu.Unlock()
			}
		}()
	}

dispatchLoop:
	for _, employeeID := range targets {
		select {
		case <-cancelCtx.Done():
			cancelled = true
			break dispatchLoop
		case jobs <- employeeID:
		}
	}
	close(jobs)
	wg.Wait()

	run.FailedEmployees = failed
	for i := range failures {
		if err := s.runRepo.AddFailure(ctx, &failures[i]); err != nil {
			s.logger.Error("persist run failure record failed",
				zap.String("run_id", run.ID.String()),
				zap.Error(err),
			)
		}
	}
	run.Failures = failures

	return cancelled
}

// finishRun persists the final run state and queues the finished event in
// one transaction.
func (s *runService) finishRun(ctx context.Context, tenantID, rid string, run *PayrollRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("finish run begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.runRepo.WithTx(tx)
	if err := qtx.Update(ctx, run); err != nil {
		s.logger.Error("finish run update failed", zap.Error(err))
		return mapRunRepositoryError(err)
	}

	if s.outbox != nil {
		event := events.PayrollRunFinishedEvent{
			EventType:      "payroll_run_finished",
			RequestID:      rid,
			RunID:          run.ID.String(),
			TenantID:       tenantID,
			ReferenceMonth: run.ReferenceMonth,
			ReferenceYear:  run.ReferenceYear,
			Status:         run.Status,
			Targeted:       run.TotalEmployees,
			Processed:      run.ProcessedEmployees,
			Failed:         run.FailedEmployees,
			OccurredAt:     time.Now().UTC(),
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			TenantID:      tenantID,
			AggregateType: "payroll_run",
			AggregateID:   run.ID.String(),
			EventType:     event.EventType,
			Topic:         events.PayrollRunFinishedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("run outbox persist failed", zap.Error(err))
			return err
		}
	}

	return tx.Commit()
}

func (s *runService) resolveTargets(ctx context.Context, tenantID string, requested []string) ([]string, error) {
	if len(requested) > 0 {
		seen := make(map[string]struct{}, len(requested))
		targets := make([]string, 0, len(requested))
		for _, id := range requested {
			if _, err := uuid.Parse(id); err != nil {
				return nil, payrollerrors.ErrInvalidEmployeeID
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			targets = append(targets, id)
		}
		return targets, nil
	}

	employees, err := s.employees.ListActiveEmployees(ctx, tenantID)
	if err != nil {
		s.logger.Error("list active employees failed", zap.Error(err))
		return nil, payrollerrors.ErrEmployeeSourceUnavailable
	}

	targets := make([]string, 0, len(employees))
	for _, e := range employees {
		targets = append(targets, e.ID.String())
	}
	return targets, nil
}

func (s *runService) GetRun(
	ctx context.Context,
	tenantID, id string,
) (RunResponse, error) {
	run, err := s.runRepo.FindByIDAndTenant(ctx, tenantID, id)
	if err != nil {
		return RunResponse{}, mapRunRepositoryError(err)
	}

	return mapRunToResponse(*run), nil
}

func (s *runService) ListRuns(
	ctx context.Context,
	tenantID string,
	month, year, limit, offset int,
) ([]RunResponse, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	runs, total, err := s.runRepo.FindAllByTenant(ctx, tenantID, month, year, limit, offset)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		return nil, 0, mapRunRepositoryError(err)
	}

	res := make([]RunResponse, len(runs))
	for i, run := range runs {
		res[i] = mapRunToResponse(run)
	}
	return res, total, nil
}

// CancelRun stops a run that is still OPEN or PROCESSING. A run in flight
// is reached through the cancel registry; its workers finish their current
// employees and the batch loop records the cancelled status.
func (s *runService) CancelRun(
	ctx context.Context,
	tenantID, actorID, id string,
) (RunResponse, error) {
	if _, err := uuid.Parse(actorID); err != nil {
		return RunResponse{}, payrollerrors.ErrInvalidActorID
	}

	run, err := s.runRepo.FindByIDAndTenant(ctx, tenantID, id)
	if err != nil {
		return RunResponse{}, mapRunRepositoryError(err)
	}

	if !CanTransitionRun(run.Status, RunStatusCancelled) {
		return RunResponse{}, payrollerrors.ErrRunNotCancellable
	}

	if cancel, inFlight := s.lookup(id); inFlight {
		cancel()
		s.logger.Info("run cancellation signalled",
			zap.String("run_id", id),
			zap.String("actor_id", actorID),
		)
		run.Status = RunStatusCancelled
		return mapRunToResponse(*run), nil
	}

	// No live dispatcher for this run (stale PROCESSING after a restart,
	// or still OPEN): finalize directly.
	now := time.Now().UTC()
	run.Status = RunStatusCancelled
	run.FinishedAt = &now
	if err := s.runRepo.Update(ctx, run); err != nil {
		s.logger.Error("cancel run update failed", zap.Error(err))
		return RunResponse{}, mapRunRepositoryError(err)
	}

	s.logger.Info("run cancelled",
		zap.String("run_id", id),
		zap.String("actor_id", actorID),
	)

	return mapRunToResponse(*run), nil
}

// CloseCompetency seals a finished run's period: every live payroll flips
// to CLOSED and further recalculation is rejected. Closing an already
// closed competency is a no-op.
func (s *runService) CloseCompetency(
	ctx context.Context,
	tenantID, actorID string,
	req CloseCompetencyRequest,
) (RunResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RunResponse{}, payrollerrors.ErrInvalidActorID
	}

	run, err := s.latestRun(ctx, tenantID, req.ReferenceMonth, req.ReferenceYear)
	if err != nil {
		return RunResponse{}, err
	}

	if run.Status == RunStatusClosed {
		return mapRunToResponse(*run), nil
	}
	if run.Status == RunStatusOpen || run.Status == RunStatusProcessing || run.ProcessedEmployees == 0 {
		return RunResponse{}, payrollerrors.ErrRunNotReady
	}
	if !CanTransitionRun(run.Status, RunStatusClosed) {
		return RunResponse{}, payrollerrors.ErrRunNotReady
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("close competency begin tx failed", zap.Error(err))
		return RunResponse{}, err
	}
	defer tx.Rollback()

	closedPayrolls, err := s.repo.WithTx(tx).CloseByCompetency(ctx, tenantID, req.ReferenceMonth, req.ReferenceYear)
	if err != nil {
		s.logger.Error("close competency payrolls failed", zap.Error(err))
		return RunResponse{}, mapRepositoryError(err)
	}

	now := time.Now().UTC()
	run.Status = RunStatusClosed
	run.ClosedAt = &now
	run.ClosedBy = &actorUUID
	if err := s.runRepo.WithTx(tx).Update(ctx, run); err != nil {
		s.logger.Error("close competency update run failed", zap.Error(err))
		return RunResponse{}, mapRunRepositoryError(err)
	}

	if s.outbox != nil {
		event := events.CompetencyClosedEvent{
			EventType:      "payroll_competency_closed",
			RequestID:      rid,
			RunID:          run.ID.String(),
			TenantID:       tenantID,
			ReferenceMonth: req.ReferenceMonth,
			ReferenceYear:  req.ReferenceYear,
			ClosedBy:       actorID,
			ClosedPayrolls: closedPayrolls,
			OccurredAt:     now,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return RunResponse{}, err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			RequestID:     rid,
			TenantID:      tenantID,
			AggregateType: "payroll_run",
			AggregateID:   run.ID.String(),
			EventType:     event.EventType,
			Topic:         events.CompetencyClosedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("competency closed outbox persist failed", zap.Error(err))
			return RunResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("close competency commit failed", zap.Error(err))
		return RunResponse{}, err
	}

	s.invalidateClosedPayrolls(ctx, tenantID, req.ReferenceMonth, req.ReferenceYear)

	s.logger.Info("competency closed",
		zap.String("request_id", rid),
		zap.String("run_id", run.ID.String()),
		zap.Int("month", req.ReferenceMonth),
		zap.Int("year", req.ReferenceYear),
		zap.Int64("closed_payrolls", closedPayrolls),
		zap.String("closed_by", actorID),
	)

	return mapRunToResponse(*run), nil
}

const closeInvalidatePageSize = 200

// invalidateClosedPayrolls drops the cached detail of every payroll sealed
// by a competency close. The rows flip to CLOSED in bulk, so without this
// GetByID would keep serving the pre-close status until the TTL runs out.
func (s *runService) invalidateClosedPayrolls(ctx context.Context, tenantID string, month, year int) {
	if s.rdb == nil {
		return
	}
	for offset := 0; ; offset += closeInvalidatePageSize {
		payrolls, _, err := s.repo.ListByCompetency(ctx, tenantID, month, year, StatusClosed, closeInvalidatePageSize, offset)
		if err != nil {
			s.logger.Warn("close competency cache invalidation lookup failed", zap.Error(err))
			return
		}
		for i := range payrolls {
			key := GetPayrollCacheKey(tenantID, payrolls[i].ID.String())
			if err := s.rdb.Del(ctx, key).Err(); err != nil {
				s.logger.Warn("payroll cache invalidation failed",
					zap.String("cache_key", key),
					zap.Error(err),
				)
			}
		}
		if len(payrolls) < closeInvalidatePageSize {
			return
		}
	}
}

// latestRun picks the most recent non-cancelled run of a competency.
func (s *runService) latestRun(ctx context.Context, tenantID string, month, year int) (*PayrollRun, error) {
	runs, _, err := s.runRepo.FindAllByTenant(ctx, tenantID, month, year, 20, 0)
	if err != nil {
		return nil, mapRunRepositoryError(err)
	}
	for i := range runs {
		if runs[i].Status != RunStatusCancelled {
			return &runs[i], nil
		}
	}
	return nil, payrollerrors.ErrRunNotFound
}

func (s *runService) register(runID string, cancel context.CancelFunc) {
	s.mu.Lock()
	s.active[runID] = cancel
	s.mu.Unlock()
}

func (s *runService) unregister(runID string) {
	s.mu.Lock()
	delete(s.active, runID)
	s.mu.Unlock()
}

func (s *runService) lookup(runID string) (context.CancelFunc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.active[runID]
	return cancel, ok
}

func mapRunToResponse(run PayrollRun) RunResponse {
	resp := RunResponse{
		ID:              run.ID.String(),
		TenantID:        run.TenantID.String(),
		RunNumber:       run.RunNumber,
		ReferenceMonth:  run.ReferenceMonth,
		ReferenceYear:   run.ReferenceYear,
		Status:          run.Status,
		TargetedCount:   run.TotalEmployees,
		ProcessedCount:  run.ProcessedEmployees,
		FailedCount:     run.FailedEmployees,
		TotalGross:      run.TotalEarnings.StringFixed(2),
		TotalDeductions: run.TotalDeductions.StringFixed(2),
		TotalNet:        run.TotalNetSalary.StringFixed(2),
		TotalFgts:       run.TotalFgts.StringFixed(2),
	}

	if run.StartedAt != nil {
		v := run.StartedAt.Format(time.RFC3339)
		resp.StartedAt = &v
	}
	if run.FinishedAt != nil {
		v := run.FinishedAt.Format(time.RFC3339)
		resp.FinishedAt = &v
	}
	if run.ClosedAt != nil {
		v := run.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &v
	}
	if run.ClosedBy != nil {
		v := run.ClosedBy.String()
		resp.ClosedBy = &v
	}

	for _, f := range run.Failures {
		resp.Failures = append(resp.Failures, RunFailureResponse{
			EmployeeID: f.EmployeeID.String(),
			Reason:     f.Reason,
		})
	}

	return resp
}
