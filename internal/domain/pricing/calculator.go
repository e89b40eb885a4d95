// Package pricing deriva costo, margen o precio de venta a partir de los otros dos.
// Se usa al componer líneas de pedido y en la ficha de producto.
package pricing

import "github.com/shopspring/decimal"

// Field identifica el campo que el usuario acaba de editar.
type Field string

const (
	FieldCost   Field = "cost"
	FieldMargin Field = "margin"
	FieldSale   Field = "sale"
)

var hundred = decimal.NewFromInt(100)

// Values agrupa los tres campos; nil significa "no informado".
type Values struct {
	Cost   *decimal.Decimal
	Margin *decimal.Decimal
	Sale   *decimal.Decimal
}

// SalePrice = Costo × (1 + Margen/100), redondeado a centavos.
func SalePrice(cost, marginPercent decimal.Decimal) decimal.Decimal {
	return cost.Mul(decimal.NewFromInt(1).Add(marginPercent.Div(hundred))).Round(2)
}

// MarginPercent = (Venta − Costo) / Costo × 100. ok es false si costo ≤ 0.
func MarginPercent(cost, sale decimal.Decimal) (decimal.Decimal, bool) {
	if !cost.IsPositive() {
		return decimal.Zero, false
	}
	return sale.Sub(cost).Div(cost).Mul(hundred).Round(4), true
}

// Derive recalcula el campo dependiente del que se editó. El campo editado nunca
// se sobrescribe. Si falta un dato o el costo no es positivo, devuelve los valores
// sin cambios.
//
//	cost, margin editados → se recalcula sale
//	sale editado          → se recalcula margin
func Derive(v Values, edited Field) Values {
	out := v
	if v.Cost == nil || !v.Cost.IsPositive() {
		return out
	}
	switch edited {
	case FieldCost, FieldMargin:
		if v.Margin == nil {
			return out
		}
		sale := SalePrice(*v.Cost, *v.Margin)
		out.Sale = &sale
	case FieldSale:
		if v.Sale == nil {
			return out
		}
		if m, ok := MarginPercent(*v.Cost, *v.Sale); ok {
			out.Margin = &m
		}
	}
	return out
}
