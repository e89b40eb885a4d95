package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus estado del pedido de venta.
type OrderStatus string

const (
	OrderStatusDraft           OrderStatus = "DRAFT"
	OrderStatusQuote           OrderStatus = "QUOTE"
	OrderStatusPendingApproval OrderStatus = "PENDING_APPROVAL"
	OrderStatusConfirmed       OrderStatus = "CONFIRMED"
	OrderStatusApproved        OrderStatus = "APPROVED"
	OrderStatusCompleted       OrderStatus = "COMPLETED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
)

// IsValid indica si el estado pertenece al enum.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusQuote, OrderStatusPendingApproval, OrderStatusConfirmed,
		OrderStatusApproved, OrderStatusCompleted, OrderStatusCanceled:
		return true
	}
	return false
}

// IsEditable: líneas y cargos solo se modifican en DRAFT o QUOTE.
func (s OrderStatus) IsEditable() bool {
	return s == OrderStatusDraft || s == OrderStatusQuote
}

// IsTerminal: COMPLETED y CANCELED no admiten más transiciones.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled
}

// IsIssuable: estados desde los cuales se puede emitir NF-e.
func (s OrderStatus) IsIssuable() bool {
	return s == OrderStatusConfirmed || s == OrderStatusApproved || s == OrderStatusCompleted
}

// CreditAnalysisStatus resultado del análisis de crédito.
type CreditAnalysisStatus string

const (
	CreditAnalysisPending  CreditAnalysisStatus = "PENDING"
	CreditAnalysisApproved CreditAnalysisStatus = "APPROVED"
	CreditAnalysisRejected CreditAnalysisStatus = "REJECTED"
)

// CreditAnalysisDecision va embebida en el pedido. DecidedAt es nil mientras
// el análisis está PENDING.
type CreditAnalysisDecision struct {
	Status    CreditAnalysisStatus
	Notes     string
	DecidedAt *time.Time
}

// DiscountMode indica cuál de los dos campos de descuento es la fuente.
type DiscountMode string

const (
	DiscountModeAmount  DiscountMode = "AMOUNT"
	DiscountModePercent DiscountMode = "PERCENT"
)

// DeliveryAddress: o se usa la dirección del cliente o una explícita.
type DeliveryAddress struct {
	UseCustomerAddress bool
	Address            Address
}

// Order pedido de venta (presupuesto o venta), raíz del agregado.
// Version se usa para el control optimista de concurrencia en la persistencia.
type Order struct {
	ID              string
	Code            string // código humano (PV-000123)
	Status          OrderStatus
	CustomerID      string
	PaymentMethodID string
	Installments    int
	Lines           []OrderLine

	Subtotal         decimal.Decimal
	DiscountAmount   decimal.Decimal
	DiscountPercent  decimal.Decimal
	DiscountMode     DiscountMode
	ShippingCost     decimal.Decimal
	ShippingModality string // modFrete NF-e (0..4, 9)
	OtherCharges     decimal.Decimal
	TotalAmount      decimal.Decimal

	Notes           string
	InternalNotes   string
	DeliveryAddress DeliveryAddress
	CreditAnalysis  *CreditAnalysisDecision
	ValidUntil      *time.Time

	// ReceivableIDs títulos generados al confirmar; se revierten al cancelar.
	ReceivableIDs []string

	ConfirmedAt        *time.Time
	ApprovedAt         *time.Time
	CompletedAt        *time.Time
	CanceledAt         *time.Time
	CancellationReason string

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderLine línea del pedido; no tiene identidad fuera de él.
type OrderLine struct {
	ID              string
	ProductID       string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	Discount        decimal.Decimal
	Subtotal        decimal.Decimal // Quantity × UnitPrice
	Total           decimal.Decimal // Subtotal − Discount
	StockLocationID string
	Notes           string
}

// HasCommittedEffects indica que el pedido pasó por confirm (stock debitado y
// títulos generados).
func (o *Order) HasCommittedEffects() bool {
	return o.ConfirmedAt != nil
}

// Confirm marca el pedido como confirmado. Las validaciones las hace el controlador.
func (o *Order) Confirm(now time.Time, receivableIDs []string, creditPending bool) {
	o.Status = OrderStatusConfirmed
	o.ConfirmedAt = &now
	o.ReceivableIDs = receivableIDs
	o.ValidUntil = nil
	if creditPending {
		o.CreditAnalysis = &CreditAnalysisDecision{Status: CreditAnalysisPending}
	}
	o.UpdatedAt = now
}

// SubmitForApproval pasa un borrador a PENDING_APPROVAL.
func (o *Order) SubmitForApproval(now time.Time, creditPending bool) {
	o.Status = OrderStatusPendingApproval
	if creditPending {
		o.CreditAnalysis = &CreditAnalysisDecision{Status: CreditAnalysisPending}
	}
	o.UpdatedAt = now
}

// Approve aprueba el pedido; decision es nil si la forma de pago no exige análisis.
func (o *Order) Approve(now time.Time, decision *CreditAnalysisDecision) {
	o.Status = OrderStatusApproved
	o.ApprovedAt = &now
	if decision != nil {
		d := *decision
		d.DecidedAt = &now
		o.CreditAnalysis = &d
	}
	o.UpdatedAt = now
}

// RejectCredit registra la decisión de crédito rechazada y cancela el pedido.
func (o *Order) RejectCredit(now time.Time, decision CreditAnalysisDecision) {
	decision.DecidedAt = &now
	o.CreditAnalysis = &decision
	o.Cancel(now, decision.Notes)
}

// Cancel pasa el pedido a CANCELED con el motivo.
func (o *Order) Cancel(now time.Time, reason string) {
	o.Status = OrderStatusCanceled
	o.CanceledAt = &now
	o.CancellationReason = reason
	o.UpdatedAt = now
}

// Complete pasa el pedido a COMPLETED.
func (o *Order) Complete(now time.Time) {
	o.Status = OrderStatusCompleted
	o.CompletedAt = &now
	o.UpdatedAt = now
}

// Clone copia profunda para editar sin tocar el original hasta validar.
func (o *Order) Clone() *Order {
	c := *o
	c.Lines = append([]OrderLine(nil), o.Lines...)
	c.ReceivableIDs = append([]string(nil), o.ReceivableIDs...)
	if o.CreditAnalysis != nil {
		ca := *o.CreditAnalysis
		c.CreditAnalysis = &ca
	}
	return &c
}
