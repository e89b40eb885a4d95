package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Vendas-api/internal/domain/pricing"
)

func ptr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestSalePrice(t *testing.T) {
	assert.Equal(t, "150.00", pricing.SalePrice(decimal.NewFromInt(100), decimal.NewFromInt(50)).StringFixed(2))
}

func TestMarginPercent(t *testing.T) {
	m, ok := pricing.MarginPercent(decimal.NewFromInt(80), decimal.NewFromInt(100))
	require.True(t, ok)
	assert.Equal(t, "25.0000", m.StringFixed(4))

	_, ok = pricing.MarginPercent(decimal.Zero, decimal.NewFromInt(100))
	assert.False(t, ok, "costo cero no se divide")
}

func TestDerive_MargenEditadoRecalculaVenta(t *testing.T) {
	out := pricing.Derive(pricing.Values{Cost: ptr("40"), Margin: ptr("25"), Sale: ptr("1")}, pricing.FieldMargin)
	require.NotNil(t, out.Sale)
	assert.Equal(t, "50.00", out.Sale.StringFixed(2))
	assert.Equal(t, "25", out.Margin.String(), "el campo editado no se toca")
}

func TestDerive_VentaEditadaRecalculaMargen(t *testing.T) {
	out := pricing.Derive(pricing.Values{Cost: ptr("40"), Margin: ptr("0"), Sale: ptr("60")}, pricing.FieldSale)
	assert.Equal(t, "50.0000", out.Margin.StringFixed(4))
	assert.Equal(t, "60", out.Sale.String())
}

func TestDerive_CostoEditadoRecalculaVenta(t *testing.T) {
	out := pricing.Derive(pricing.Values{Cost: ptr("10"), Margin: ptr("100")}, pricing.FieldCost)
	assert.Equal(t, "20.00", out.Sale.StringFixed(2))
}

func TestDerive_SinCostoNoRecalcula(t *testing.T) {
	in := pricing.Values{Cost: ptr("0"), Margin: ptr("30"), Sale: ptr("99")}
	out := pricing.Derive(in, pricing.FieldMargin)
	assert.Equal(t, "99", out.Sale.String())

	out = pricing.Derive(pricing.Values{Margin: ptr("30")}, pricing.FieldMargin)
	assert.Nil(t, out.Sale)
}

func TestDerive_FaltaFuenteNoRecalcula(t *testing.T) {
	out := pricing.Derive(pricing.Values{Cost: ptr("10")}, pricing.FieldSale)
	assert.Nil(t, out.Margin)
	assert.Nil(t, out.Sale)
}
