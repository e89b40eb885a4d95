package dto

import "github.com/shopspring/decimal"

// DerivePriceRequest body de POST /api/pricing/derive.
type DerivePriceRequest struct {
	Cost   *decimal.Decimal `json:"cost,omitempty"`
	Margin *decimal.Decimal `json:"margin_percent,omitempty"`
	Sale   *decimal.Decimal `json:"sale_price,omitempty"`
	Edited string           `json:"edited" validate:"required,oneof=cost margin sale"`
}

// DerivePriceResponse valores resultantes.
type DerivePriceResponse struct {
	Cost   *decimal.Decimal `json:"cost,omitempty"`
	Margin *decimal.Decimal `json:"margin_percent,omitempty"`
	Sale   *decimal.Decimal `json:"sale_price,omitempty"`
}
