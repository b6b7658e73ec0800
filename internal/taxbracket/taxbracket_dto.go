package taxbracket

type CreateTaxBracketRequest struct {
	TaxType         string  `json:"tax_type" binding:"required"`
	BracketOrder    int     `json:"bracket_order" binding:"required,min=1"`
	MinValue        string  `json:"min_value" binding:"required"`
	MaxValue        *string `json:"max_value"`
	Rate            string  `json:"rate" binding:"required"`
	DeductionAmount string  `json:"deduction_amount"`
	EffectiveFrom   string  `json:"effective_from" binding:"required"`
	EffectiveUntil  *string `json:"effective_until"`
}

type UpdateTaxBracketRequest struct {
	MinValue        string  `json:"min_value" binding:"required"`
	MaxValue        *string `json:"max_value"`
	Rate            string  `json:"rate" binding:"required"`
	DeductionAmount string  `json:"deduction_amount"`
	EffectiveFrom   string  `json:"effective_from" binding:"required"`
	EffectiveUntil  *string `json:"effective_until"`
	IsActive        bool    `json:"is_active"`
}

type TaxBracketResponse struct {
	ID              string  `json:"id"`
	TaxType         string  `json:"tax_type"`
	BracketOrder    int     `json:"bracket_order"`
	MinValue        string  `json:"min_value"`
	MaxValue        *string `json:"max_value,omitempty"`
	Rate            string  `json:"rate"`
	DeductionAmount string  `json:"deduction_amount"`
	EffectiveFrom   string  `json:"effective_from"`
	EffectiveUntil  *string `json:"effective_until,omitempty"`
	IsActive        bool    `json:"is_active"`
}
