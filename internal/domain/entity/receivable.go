package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un título a cobrar.
const (
	ReceivableOpen     = "OPEN"
	ReceivableReversed = "REVERSED"
)

// Receivable cuota a cobrar generada al confirmar un pedido.
type Receivable struct {
	ID                string
	OrderID           string
	PaymentMethodID   string
	InstallmentNumber int
	Installments      int
	Amount            decimal.Decimal
	DueDate           time.Time
	Status            string
	CreatedAt         time.Time
	ReversedAt        *time.Time
}
