package payroll

import (
	"context"
	"database/sql"

	"github.com/jdeveloperweb/axonrh-sub004/internal/tenant"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, payroll *Payroll) error
	FindByIDAndTenant(ctx context.Context, tenantID string, id string) (*Payroll, error)
	FindByEmployeeAndPeriod(ctx context.Context, tenantID string, employeeID string, month, year int) (*Payroll, error)
	ExistsNonCancelled(ctx context.Context, tenantID string, employeeID string, month, year int) (bool, error)
	ListByCompetency(ctx context.Context, tenantID string, month, year int, status string, limit, offset int) ([]Payroll, int64, error)
	ListByEmployee(ctx context.Context, tenantID string, employeeID string) ([]Payroll, error)
	ListByRun(ctx context.Context, tenantID string, runID string) ([]Payroll, error)
	Update(ctx context.Context, payroll *Payroll) error
	ReplaceItems(ctx context.Context, payroll *Payroll, items []PayrollItem) error
	CloseByCompetency(ctx context.Context, tenantID string, month, year int) (int64, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

func (r *repository) Create(ctx context.Context, payroll *Payroll) error {
	return r.db.WithContext(ctx).Create(payroll).Error
}

func (r *repository) FindByIDAndTenant(ctx context.Context, tenantID string, id string) (*Payroll, error) {
	var payroll Payroll
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&payroll, "id = ?", id).Error
	return &payroll, err
}

// FindByEmployeeAndPeriod returns the live payroll of one employee for one
// competency. Cancelled payrolls do not count: a period can hold any number
// of cancelled payrolls but at most one live one.
func (r *repository) FindByEmployeeAndPeriod(ctx context.Context, tenantID string, employeeID string, month, year int) (*Payroll, error) {
	var payroll Payroll
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("employee_id = ?", employeeID).
		Where("reference_month = ? AND reference_year = ?", month, year).
		Where("status <> ?", StatusCancelled).
		First(&payroll).Error
	return &payroll, err
}

func (r *repository) ExistsNonCancelled(ctx context.Context, tenantID string, employeeID string, month, year int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Payroll{}).
		Scopes(tenant.Scope(tenantID)).
		Where("employee_id = ?", employeeID).
		Where("reference_month = ? AND reference_year = ?", month, year).
		Where("status <> ?", StatusCancelled).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListByCompetency(ctx context.Context, tenantID string, month, year int, status string, limit, offset int) ([]Payroll, int64, error) {
	db := r.db.WithContext(ctx).
		Model(&Payroll{}).
		Scopes(tenant.Scope(tenantID)).
		Where("reference_month = ? AND reference_year = ?", month, year)

	if status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payrolls []Payroll
	err := db.
		Order("employee_name ASC").
		Limit(limit).
		Offset(offset).
		Find(&payrolls).Error
	return payrolls, total, err
}

func (r *repository) ListByEmployee(ctx context.Context, tenantID string, employeeID string) ([]Payroll, error) {
	var payrolls []Payroll
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("employee_id = ?", employeeID).
		Order("reference_year DESC, reference_month DESC").
		Find(&payrolls).Error
	return payrolls, err
}

func (r *repository) ListByRun(ctx context.Context, tenantID string, runID string) ([]Payroll, error) {
	var payrolls []Payroll
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("payroll_run_id = ?", runID).
		Order("employee_name ASC").
		Find(&payrolls).Error
	return payrolls, err
}

func (r *repository) Update(ctx context.Context, payroll *Payroll) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: false}).
		Omit("Items").
		Save(payroll).Error
}

// ReplaceItems swaps a payroll's line items wholesale. Recalculation never
// patches individual lines, it rewrites the whole payslip.
func (r *repository) ReplaceItems(ctx context.Context, payroll *Payroll, items []PayrollItem) error {
	if err := r.db.WithContext(ctx).
		Where("payroll_id = ?", payroll.ID).
		Delete(&PayrollItem{}).Error; err != nil {
		return err
	}

	if len(items) == 0 {
		payroll.Items = nil
		return nil
	}

	for i := range items {
		items[i].PayrollID = payroll.ID
	}
	if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
		return err
	}
	payroll.Items = items
	return nil
}

// CloseByCompetency flips every live calculated or approved payroll of the
// period to CLOSED and returns how many rows changed. Draft and cancelled
// payrolls are untouched.
func (r *repository) CloseByCompetency(ctx context.Context, tenantID string, month, year int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&Payroll{}).
		Scopes(tenant.Scope(tenantID)).
		Where("reference_month = ? AND reference_year = ?", month, year).
		Where("status IN ?", []string{StatusCalculated, StatusApproved, StatusPaid}).
		Update("status", StatusClosed)
	return result.RowsAffected, result.Error
}
