package taxbracket

import (
	"context"
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/tenant"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, bracket *TaxBracket) error
	FindByIDAndTenant(ctx context.Context, tenantID string, id string) (*TaxBracket, error)
	FindAllByTenant(ctx context.Context, tenantID string, taxType string) ([]TaxBracket, error)
	FindActive(ctx context.Context, tenantID string, taxType string, refDate time.Time) ([]TaxBracket, error)
	Update(ctx context.Context, bracket *TaxBracket) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, bracket *TaxBracket) error {
	return r.db.WithContext(ctx).Create(bracket).Error
}

func (r *repository) FindByIDAndTenant(ctx context.Context, tenantID string, id string) (*TaxBracket, error) {
	var bracket TaxBracket
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		First(&bracket, "id = ?", id).Error
	return &bracket, err
}

func (r *repository) FindAllByTenant(ctx context.Context, tenantID string, taxType string) ([]TaxBracket, error) {
	db := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("is_active = true")

	if taxType != "" {
		db = db.Where("tax_type = ?", taxType).Order("bracket_order ASC")
	} else {
		db = db.Order("tax_type ASC, bracket_order ASC")
	}

	var brackets []TaxBracket
	err := db.Find(&brackets).Error
	return brackets, err
}

// FindActive returns the rows effective on refDate, ordered for table
// assembly. Effective-until NULL means open-ended.
func (r *repository) FindActive(ctx context.Context, tenantID string, taxType string, refDate time.Time) ([]TaxBracket, error) {
	var brackets []TaxBracket
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("tax_type = ?", taxType).
		Where("is_active = true").
		Where("effective_from <= ?", refDate).
		Where("effective_until IS NULL OR effective_until >= ?", refDate).
		Order("bracket_order ASC").
		Find(&brackets).Error
	return brackets, err
}

func (r *repository) Update(ctx context.Context, bracket *TaxBracket) error {
	return r.db.WithContext(ctx).Save(bracket).Error
}
