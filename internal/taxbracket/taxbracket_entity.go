package taxbracket

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TaxTypeINSS = "INSS"
	TaxTypeIRRF = "IRRF"
)

// TaxBracket is one row of a tenant's progressive table for a tax type.
// Rows are soft-deactivated, never deleted: historical payrolls must stay
// reproducible.
type TaxBracket struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index:idx_tenant_tax_type"`
	TaxType  string    `gorm:"type:varchar(30);not null;index:idx_tenant_tax_type"`

	// BracketOrder defines application sequence; Min is inclusive, Max
	// exclusive. Max NULL means the unbounded top bracket.
	BracketOrder    int                 `gorm:"not null"`
	MinValue        decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	MaxValue        decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	Rate            decimal.Decimal     `gorm:"type:numeric(6,3);not null"` // percent
	DeductionAmount decimal.Decimal     `gorm:"type:numeric(12,2);not null;default:0"`

	EffectiveFrom  time.Time  `gorm:"type:date;not null"`
	EffectiveUntil *time.Time `gorm:"type:date"`
	IsActive       bool       `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TaxBracket) TableName() string {
	return "tax_brackets"
}
