// Package sales contiene las reglas puras del pedido de venta: totales,
// transiciones de estado y la compuerta de análisis de crédito.
package sales

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// Recompute recalcula los totales de línea y del pedido y valida su coherencia.
//
//	línea:  subtotal = cantidad × precio; total = subtotal − descuento
//	pedido: subtotal = Σ subtotal de línea
//	        total    = subtotal − descuento + flete + otros
//
// En modo PERCENT el descuento del pedido se deriva del porcentaje; en modo AMOUNT
// el porcentaje se deriva del monto. Modifica o en el lugar.
func Recompute(o *entity.Order) error {
	seen := make(map[string]struct{}, len(o.Lines))
	subtotal := decimal.Zero
	for i := range o.Lines {
		l := &o.Lines[i]
		field := fmt.Sprintf("lines[%d]", i)
		if l.ProductID == "" {
			return domain.Validation(field+".product_id", "producto requerido")
		}
		if _, dup := seen[l.ProductID]; dup {
			return domain.Validation(field+".product_id", "el producto ya está en el pedido")
		}
		seen[l.ProductID] = struct{}{}
		if !l.Quantity.IsPositive() {
			return domain.Validation(field+".quantity", "la cantidad debe ser mayor que cero")
		}
		if l.UnitPrice.IsNegative() {
			return domain.Validation(field+".unit_price", "el precio unitario no puede ser negativo")
		}
		if l.Discount.IsNegative() {
			return domain.Validation(field+".discount", "el descuento no puede ser negativo")
		}
		l.Subtotal = l.Quantity.Mul(l.UnitPrice).Round(2)
		if l.Discount.GreaterThan(l.Subtotal) {
			return domain.Validation(field+".discount", "el descuento supera el subtotal de la línea")
		}
		l.Total = l.Subtotal.Sub(l.Discount)
		subtotal = subtotal.Add(l.Subtotal)
	}

	if o.ShippingCost.IsNegative() {
		return domain.Validation("shipping_cost", "el flete no puede ser negativo")
	}
	if o.OtherCharges.IsNegative() {
		return domain.Validation("other_charges", "otros cargos no pueden ser negativos")
	}

	switch o.DiscountMode {
	case entity.DiscountModePercent:
		if o.DiscountPercent.IsNegative() || o.DiscountPercent.GreaterThan(hundred) {
			return domain.Validation("discount_percent", "el porcentaje de descuento debe estar entre 0 y 100")
		}
		o.DiscountAmount = subtotal.Mul(o.DiscountPercent).Div(hundred).Round(2)
	default:
		o.DiscountMode = entity.DiscountModeAmount
		if o.DiscountAmount.IsNegative() {
			return domain.Validation("discount_amount", "el descuento no puede ser negativo")
		}
		if subtotal.IsPositive() {
			o.DiscountPercent = o.DiscountAmount.Div(subtotal).Mul(hundred).Round(4)
		} else {
			o.DiscountPercent = decimal.Zero
		}
	}
	if o.DiscountAmount.GreaterThan(subtotal) {
		return domain.Validation("discount_amount", "el descuento supera el subtotal del pedido")
	}

	o.Subtotal = subtotal
	o.TotalAmount = ExpectedTotal(o)
	return nil
}

// ExpectedTotal aplica la fórmula del total sobre los componentes actuales.
func ExpectedTotal(o *entity.Order) decimal.Decimal {
	return o.Subtotal.Sub(o.DiscountAmount).Add(o.ShippingCost).Add(o.OtherCharges)
}

// CheckConsistency verifica que los totales persistidos coincidan con los
// componentes. Se usa al cargar pedidos antes de una transición.
func CheckConsistency(o *entity.Order) error {
	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.Subtotal)
	}
	if !sum.Equal(o.Subtotal) {
		return domain.Validation("subtotal", "el subtotal no coincide con las líneas")
	}
	if !ExpectedTotal(o).Equal(o.TotalAmount) {
		return domain.Validation("total_amount", "el total no coincide con sus componentes")
	}
	return nil
}
