package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock saldo actual de un producto en una ubicación.
type Stock struct {
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
	UpdatedAt  time.Time
}
