package taxbracket

import (
	"context"
	"time"

	taxbracketerrors "github.com/jdeveloperweb/axonrh-sub004/internal/taxbracket/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resolver is the narrow read side the payroll calculator depends on.
type Resolver interface {
	Resolve(ctx context.Context, tenantID string, taxType string, refDate time.Time) (Table, error)
}

type Service interface {
	Resolver
	Create(ctx context.Context, tenantID string, req CreateTaxBracketRequest) (TaxBracketResponse, error)
	GetAll(ctx context.Context, tenantID string, taxType string) ([]TaxBracketResponse, error)
	Update(ctx context.Context, tenantID, id string, req UpdateTaxBracketRequest) (TaxBracketResponse, error)
	Deactivate(ctx context.Context, tenantID, id string) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("taxbracket.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("taxbracket.service")
	}
	return &service{repo: repo, logger: l}
}

// Resolve loads the currently-effective rows and turns them into a
// validated Table. An empty result is ErrNoBracketsConfigured; a table
// failing the partition invariant is ErrMalformedTable. Both abort the
// caller's tax calculation rather than yielding a silent zero.
func (s *service) Resolve(ctx context.Context, tenantID string, taxType string, refDate time.Time) (Table, error) {
	if _, err := uuid.Parse(tenantID); err != nil {
		return Table{}, taxbracketerrors.ErrInvalidTenantID
	}
	if taxType == "" {
		return Table{}, taxbracketerrors.ErrInvalidTaxType
	}

	rows, err := s.repo.FindActive(ctx, tenantID, taxType, refDate)
	if err != nil {
		return Table{}, err
	}
	if len(rows) == 0 {
		return Table{}, taxbracketerrors.ErrNoBracketsConfigured
	}

	brackets := make([]Bracket, len(rows))
	for i, row := range rows {
		b := Bracket{
			Order:     row.BracketOrder,
			Min:       row.MinValue,
			Rate:      row.Rate,
			Deduction: row.DeductionAmount,
		}
		if row.MaxValue.Valid {
			max := row.MaxValue.Decimal
			b.Max = &max
		}
		brackets[i] = b
	}

	table, err := NewTable(taxType, brackets)
	if err != nil {
		s.logger.Warn("malformed tax bracket table",
			zap.String("tenant_id", tenantID),
			zap.String("tax_type", taxType),
			zap.Time("reference_date", refDate),
		)
		return Table{}, err
	}

	return table, nil
}

func (s *service) Create(ctx context.Context, tenantID string, req CreateTaxBracketRequest) (TaxBracketResponse, error) {
	tenantUUID, err := uuid.Parse(tenantID)
	if err != nil {
		return TaxBracketResponse{}, taxbracketerrors.ErrInvalidTenantID
	}

	bracket := &TaxBracket{
		ID:       uuid.New(),
		TenantID: tenantUUID,
		TaxType:  req.TaxType,
		IsActive: true,
	}

	if err := applyBracketValues(bracket, req.BracketOrder, req.MinValue, req.MaxValue,
		req.Rate, req.DeductionAmount, req.EffectiveFrom, req.EffectiveUntil); err != nil {
		return TaxBracketResponse{}, err
	}

	if err := s.repo.Create(ctx, bracket); err != nil {
		return TaxBracketResponse{}, err
	}

	return mapToResponse(*bracket), nil
}

func (s *service) GetAll(ctx context.Context, tenantID string, taxType string) ([]TaxBracketResponse, error) {
	if _, err := uuid.Parse(tenantID); err != nil {
		return nil, taxbracketerrors.ErrInvalidTenantID
	}

	brackets, err := s.repo.FindAllByTenant(ctx, tenantID, taxType)
	if err != nil {
		return nil, err
	}

	resp := make([]TaxBracketResponse, len(brackets))
	for i, b := range brackets {
		resp[i] = mapToResponse(b)
	}
	return resp, nil
}

func (s *service) Update(ctx context.Context, tenantID, id string, req UpdateTaxBracketRequest) (TaxBracketResponse, error) {
	bracket, err := s.findExisting(ctx, tenantID, id)
	if err != nil {
		return TaxBracketResponse{}, err
	}

	if err := applyBracketValues(bracket, bracket.BracketOrder, req.MinValue, req.MaxValue,
		req.Rate, req.DeductionAmount, req.EffectiveFrom, req.EffectiveUntil); err != nil {
		return TaxBracketResponse{}, err
	}
	bracket.IsActive = req.IsActive

	if err := s.repo.Update(ctx, bracket); err != nil {
		return TaxBracketResponse{}, err
	}

	return mapToResponse(*bracket), nil
}

// Deactivate soft-disables a row. Rows are never hard-deleted so closed
// payrolls stay reproducible.
func (s *service) Deactivate(ctx context.Context, tenantID, id string) error {
	bracket, err := s.findExisting(ctx, tenantID, id)
	if err != nil {
		return err
	}

	bracket.IsActive = false
	return s.repo.Update(ctx, bracket)
}

func (s *service) findExisting(ctx context.Context, tenantID, id string) (*TaxBracket, error) {
	if _, err := uuid.Parse(tenantID); err != nil {
		return nil, taxbracketerrors.ErrInvalidTenantID
	}

	bracket, err := s.repo.FindByIDAndTenant(ctx, tenantID, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, taxbracketerrors.ErrBracketNotFound
		}
		return nil, err
	}
	return bracket, nil
}

func applyBracketValues(
	bracket *TaxBracket,
	order int,
	minValue string, maxValue *string,
	rate, deduction string,
	effectiveFrom string, effectiveUntil *string,
) error {
	min, err := decimal.NewFromString(minValue)
	if err != nil || min.IsNegative() {
		return taxbracketerrors.ErrInvalidBracketRange
	}

	var max decimal.NullDecimal
	if maxValue != nil && *maxValue != "" {
		v, err := decimal.NewFromString(*maxValue)
		if err != nil || !v.GreaterThan(min) {
			return taxbracketerrors.ErrInvalidBracketRange
		}
		max = decimal.NullDecimal{Decimal: v, Valid: true}
	}

	rateValue, err := decimal.NewFromString(rate)
	if err != nil || rateValue.IsNegative() {
		return taxbracketerrors.ErrInvalidBracketRange
	}

	deductionValue := decimal.Zero
	if deduction != "" {
		deductionValue, err = decimal.NewFromString(deduction)
		if err != nil || deductionValue.IsNegative() {
			return taxbracketerrors.ErrInvalidBracketRange
		}
	}

	from, err := time.Parse("2006-01-02", effectiveFrom)
	if err != nil {
		return taxbracketerrors.ErrInvalidDateFormat
	}

	var until *time.Time
	if effectiveUntil != nil && *effectiveUntil != "" {
		u, err := time.Parse("2006-01-02", *effectiveUntil)
		if err != nil {
			return taxbracketerrors.ErrInvalidDateFormat
		}
		until = &u
	}

	bracket.BracketOrder = order
	bracket.MinValue = min
	bracket.MaxValue = max
	bracket.Rate = rateValue
	bracket.DeductionAmount = deductionValue
	bracket.EffectiveFrom = from
	bracket.EffectiveUntil = until
	return nil
}

func mapToResponse(b TaxBracket) TaxBracketResponse {
	resp := TaxBracketResponse{
		ID:              b.ID.String(),
		TaxType:         b.TaxType,
		BracketOrder:    b.BracketOrder,
		MinValue:        b.MinValue.StringFixed(2),
		Rate:            b.Rate.String(),
		DeductionAmount: b.DeductionAmount.StringFixed(2),
		EffectiveFrom:   b.EffectiveFrom.Format("2006-01-02"),
		IsActive:        b.IsActive,
	}
	if b.MaxValue.Valid {
		v := b.MaxValue.Decimal.StringFixed(2)
		resp.MaxValue = &v
	}
	if b.EffectiveUntil != nil {
		v := b.EffectiveUntil.Format("2006-01-02")
		resp.EffectiveUntil = &v
	}
	return resp
}
