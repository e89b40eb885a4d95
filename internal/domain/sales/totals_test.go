package sales_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/sales"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(product, qty, price, discount string) entity.OrderLine {
	return entity.OrderLine{
		ProductID: product,
		Quantity:  dec(qty),
		UnitPrice: dec(price),
		Discount:  dec(discount),
	}
}

// Pedido con una línea (3 × 100,00, descuento 10,00), flete 20,00, sin otros cargos
// ni descuento de cabecera → subtotal 300,00 y total 310,00.
func TestRecompute_EscenarioUnaLinea(t *testing.T) {
	o := &entity.Order{
		Lines:        []entity.OrderLine{line("p1", "3", "100.00", "10.00")},
		ShippingCost: dec("20.00"),
	}

	require.NoError(t, sales.Recompute(o))

	assert.Equal(t, "300.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "310.00", o.TotalAmount.StringFixed(2))
	assert.Equal(t, "300.00", o.Lines[0].Subtotal.StringFixed(2))
	assert.Equal(t, "290.00", o.Lines[0].Total.StringFixed(2))
	assert.NoError(t, sales.CheckConsistency(o))
}

func TestRecompute_InvarianteDelTotal(t *testing.T) {
	o := &entity.Order{
		Lines: []entity.OrderLine{
			line("p1", "2", "15.50", "0"),
			line("p2", "1.5", "9.99", "1.00"),
		},
		DiscountAmount: dec("5.00"),
		ShippingCost:   dec("12.30"),
		OtherCharges:   dec("3.20"),
	}
	require.NoError(t, sales.Recompute(o))

	expected := o.Subtotal.Sub(o.DiscountAmount).Add(o.ShippingCost).Add(o.OtherCharges)
	assert.True(t, expected.Equal(o.TotalAmount))
	// 31,00 + 14,985 → 14,99
	assert.Equal(t, "45.99", o.Subtotal.StringFixed(2))
	assert.Equal(t, "56.49", o.TotalAmount.StringFixed(2))
}

func TestRecompute_DescuentoPorcentualSeRecalcula(t *testing.T) {
	o := &entity.Order{
		Lines:           []entity.OrderLine{line("p1", "1", "200", "0")},
		DiscountMode:    entity.DiscountModePercent,
		DiscountPercent: dec("10"),
	}
	require.NoError(t, sales.Recompute(o))
	assert.Equal(t, "20.00", o.DiscountAmount.StringFixed(2))
	assert.Equal(t, "180.00", o.TotalAmount.StringFixed(2))

	// Cambia la cantidad: el porcentaje manda y el monto acompaña.
	o.Lines[0].Quantity = dec("2")
	require.NoError(t, sales.Recompute(o))
	assert.Equal(t, "40.00", o.DiscountAmount.StringFixed(2))
	assert.Equal(t, "360.00", o.TotalAmount.StringFixed(2))
}

func TestRecompute_DescuentoEnMontoDerivaPorcentaje(t *testing.T) {
	o := &entity.Order{
		Lines:          []entity.OrderLine{line("p1", "4", "25", "0")},
		DiscountAmount: dec("25"),
	}
	require.NoError(t, sales.Recompute(o))
	assert.Equal(t, entity.DiscountModeAmount, o.DiscountMode)
	assert.Equal(t, "25.0000", o.DiscountPercent.StringFixed(4))
}

func TestRecompute_ErroresDeValidacion(t *testing.T) {
	cases := []struct {
		name  string
		order *entity.Order
		field string
	}{
		{"cantidad cero", &entity.Order{Lines: []entity.OrderLine{line("p1", "0", "10", "0")}}, "lines[0].quantity"},
		{"precio negativo", &entity.Order{Lines: []entity.OrderLine{line("p1", "1", "-1", "0")}}, "lines[0].unit_price"},
		{"descuento mayor que la línea", &entity.Order{Lines: []entity.OrderLine{line("p1", "1", "10", "11")}}, "lines[0].discount"},
		{"producto repetido", &entity.Order{Lines: []entity.OrderLine{line("p1", "1", "10", "0"), line("p1", "2", "10", "0")}}, "lines[1].product_id"},
		{"flete negativo", &entity.Order{ShippingCost: dec("-1")}, "shipping_cost"},
		{"descuento supera subtotal", &entity.Order{Lines: []entity.OrderLine{line("p1", "1", "10", "0")}, DiscountAmount: dec("11")}, "discount_amount"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := sales.Recompute(tc.order)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tc.field, domain.FieldOf(err))
		})
	}
}

func TestCheckConsistency_DetectaTotalDesactualizado(t *testing.T) {
	o := &entity.Order{Lines: []entity.OrderLine{line("p1", "1", "10", "0")}}
	require.NoError(t, sales.Recompute(o))
	o.TotalAmount = dec("999")
	assert.ErrorIs(t, sales.CheckConsistency(o), domain.ErrValidation)
}
