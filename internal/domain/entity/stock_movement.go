package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento generados por el ciclo de ventas.
const (
	MovementTypeOUT = "OUT" // débito por confirmación de pedido
	MovementTypeIN  = "IN"  // reposición por cancelación (compensación)
)

// StockMovement registro de un débito o reposición. TransactionID es el ID del
// pedido que lo originó.
type StockMovement struct {
	ID            string
	TransactionID string
	ProductID     string
	LocationID    string
	Type          string
	Quantity      decimal.Decimal // positivo en IN, negativo en OUT
	Reason        string
	CreatedAt     time.Time
}
