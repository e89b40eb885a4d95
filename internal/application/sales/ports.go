package sales

import (
	"context"

	"github.com/shopspring/decimal"
)

// StockCommitmentService debita y repone stock por ubicación.
// Debit devuelve domain.ErrInsufficientStock si el saldo no alcanza.
// Restore es idempotente por reference: nunca repone más de lo debitado con ella.
type StockCommitmentService interface {
	Available(ctx context.Context, productID, locationID string) (decimal.Decimal, error)
	Debit(ctx context.Context, productID, locationID string, quantity decimal.Decimal, reference string) error
	Restore(ctx context.Context, productID, locationID string, quantity decimal.Decimal, reference string) error
}

// LedgerPostingService genera y revierte las cuentas por cobrar del pedido.
// Los errores de negocio se devuelven como domain.ErrLedger.
type LedgerPostingService interface {
	PostReceivables(ctx context.Context, orderID, paymentMethodID string, installments int, totalAmount decimal.Decimal) ([]string, error)
	// ReverseReceivables es idempotente: los títulos ya revertidos se ignoran.
	ReverseReceivables(ctx context.Context, orderID string, receivableIDs []string) error
}

// OrderLocker serializa las escrituras sobre un mismo pedido (confirm, approve,
// edición...). Hay implementación en proceso y distribuida (Redis).
type OrderLocker interface {
	Lock(ctx context.Context, orderID string) (unlock func(), err error)
}
