package sales

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
)

func conflict(o *entity.Order, action string) error {
	return domain.StateConflict(fmt.Sprintf("no se puede %s un pedido en estado %s", action, o.Status))
}

// CheckEditable: líneas y cargos solo en DRAFT/QUOTE.
func CheckEditable(o *entity.Order) error {
	if !o.Status.IsEditable() {
		return conflict(o, "editar")
	}
	return nil
}

// CheckDelete: solo DRAFT/QUOTE se borran físicamente.
func CheckDelete(o *entity.Order) error {
	if !o.Status.IsEditable() {
		return conflict(o, "eliminar")
	}
	return nil
}

// CheckConfirm valida las precondiciones de confirm (solo desde QUOTE).
func CheckConfirm(o *entity.Order) error {
	if o.Status != entity.OrderStatusQuote {
		return conflict(o, "confirmar")
	}
	if err := checkCommercialData(o); err != nil {
		return err
	}
	for i, l := range o.Lines {
		if !l.UnitPrice.IsPositive() {
			return domain.Validation(fmt.Sprintf("lines[%d].unit_price", i), "el precio unitario debe ser mayor que cero")
		}
	}
	return nil
}

// CheckSubmit: DRAFT → PENDING_APPROVAL.
func CheckSubmit(o *entity.Order) error {
	if o.Status != entity.OrderStatusDraft {
		return conflict(o, "enviar a aprobación")
	}
	if err := checkCommercialData(o); err != nil {
		return err
	}
	return CheckStockLocations(o)
}

// CheckApprove: cualquier estado no terminal salvo QUOTE. Un pedido ya APPROVED
// no se vuelve a aprobar.
func CheckApprove(o *entity.Order) error {
	if o.Status.IsTerminal() || o.Status == entity.OrderStatusQuote || o.Status == entity.OrderStatusApproved {
		return conflict(o, "aprobar")
	}
	if err := checkCommercialData(o); err != nil {
		return err
	}
	return CheckStockLocations(o)
}

// CheckCancel exige motivo y un estado no terminal.
func CheckCancel(o *entity.Order, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return domain.Validation("reason", "el motivo de cancelación es obligatorio")
	}
	if o.Status.IsTerminal() {
		return conflict(o, "cancelar")
	}
	return nil
}

// CheckComplete: desde APPROVED o CONFIRMED.
func CheckComplete(o *entity.Order) error {
	if o.Status != entity.OrderStatusApproved && o.Status != entity.OrderStatusConfirmed {
		return conflict(o, "completar")
	}
	return CheckStockLocations(o)
}

// CheckIssuable: la NF-e solo se emite para CONFIRMED, APPROVED o COMPLETED.
func CheckIssuable(o *entity.Order) error {
	if !o.Status.IsIssuable() {
		return conflict(o, "emitir NF-e para")
	}
	return nil
}

// CheckStockLocations exige ubicación de stock en todas las líneas.
func CheckStockLocations(o *entity.Order) error {
	for i, l := range o.Lines {
		if l.StockLocationID == "" {
			return domain.Validation(fmt.Sprintf("lines[%d].stock_location_id", i), "la línea no tiene ubicación de stock")
		}
	}
	return nil
}

func checkCommercialData(o *entity.Order) error {
	if o.CustomerID == "" {
		return domain.Validation("customer_id", "el pedido no tiene cliente")
	}
	if len(o.Lines) == 0 {
		return domain.Validation("lines", "el pedido no tiene líneas")
	}
	return nil
}
