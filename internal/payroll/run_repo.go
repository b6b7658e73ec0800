package payroll

import (
	"context"
	"database/sql"

	"github.com/jdeveloperweb/axonrh-sub004/internal/tenant"

	"gorm.io/gorm"
)

type RunRepository interface {
	WithTx(tx *sql.Tx) RunRepository
	Create(ctx context.Context, run *PayrollRun) error
	FindByIDAndTenant(ctx context.Context, tenantID string, id string) (*PayrollRun, error)
	FindAllByTenant(ctx context.Context, tenantID string, month, year int, limit, offset int) ([]PayrollRun, int64, error)
	HasActiveRun(ctx context.Context, tenantID string, month, year int) (bool, error)
	HasClosedRun(ctx context.Context, tenantID string, month, year int) (bool, error)
	Update(ctx context.Context, run *PayrollRun) error
	AddFailure(ctx context.Context, failure *RunFailure) error
}

type runRepository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) WithTx(tx *sql.Tx) RunRepository {
	return &runRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *runRepository) Create(ctx context.Context, run *PayrollRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *runRepository) FindByIDAndTenant(ctx context.Context, tenantID string, id string) (*PayrollRun, error) {
	var run PayrollRun
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Preload("Failures").
		First(&run, "id = ?", id).Error
	return &run, err
}

func (r *runRepository) FindAllByTenant(ctx context.Context, tenantID string, month, year int, limit, offset int) ([]PayrollRun, int64, error) {
	db := r.db.WithContext(ctx).
		Model(&PayrollRun{}).
		Scopes(tenant.Scope(tenantID))

	if month > 0 {
		db = db.Where("reference_month = ?", month)
	}
	if year > 0 {
		db = db.Where("reference_year = ?", year)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []PayrollRun
	err := db.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error
	return runs, total, err
}

// HasActiveRun reports whether another non-cancelled run already exists for
// the competency. A competency owns at most one live run: a finished run is
// still the run of record for its payrolls, so a second one may only start
// after the first is cancelled. Closure is reported separately.
func (r *runRepository) HasActiveRun(ctx context.Context, tenantID string, month, year int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&PayrollRun{}).
		Scopes(tenant.Scope(tenantID)).
		Where("reference_month = ? AND reference_year = ?", month, year).
		Where("status NOT IN ?", []string{RunStatusCancelled, RunStatusClosed}).
		Count(&count).Error
	return count > 0, err
}

func (r *runRepository) HasClosedRun(ctx context.Context, tenantID string, month, year int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&PayrollRun{}).
		Scopes(tenant.Scope(tenantID)).
		Where("reference_month = ? AND reference_year = ?", month, year).
		Where("status = ?", RunStatusClosed).
		Count(&count).Error
	return count > 0, err
}

func (r *runRepository) Update(ctx context.Context, run *PayrollRun) error {
	return r.db.WithContext(ctx).
		Omit("Failures", "Payrolls").
		Save(run).Error
}

func (r *runRepository) AddFailure(ctx context.Context, failure *RunFailure) error {
	return r.db.WithContext(ctx).Create(failure).Error
}
